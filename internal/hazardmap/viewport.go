package hazardmap

import "math"

const (
	tileSize = 256.0
	maxZoom  = 19

	// maxMercatorSin keeps the projection finite near the poles.
	maxMercatorSin = 0.9999
)

// DefaultCenter is the initial map center over the Indian subcontinent.
var DefaultCenter = LatLng{Lat: 20.5937, Lng: 78.9629}

// DefaultZoom is the initial map zoom level.
const DefaultZoom = 5

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Viewport describes the visible map area: its center, zoom and pixel size.
type Viewport struct {
	Center LatLng  `json:"center"`
	Zoom   float64 `json:"zoom"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// DefaultViewport returns the initial viewport.
func DefaultViewport() Viewport {
	return Viewport{Center: DefaultCenter, Zoom: DefaultZoom, Width: 1024, Height: 600}
}

// normalize clamps zoom into the supported range and fills in a missing size.
func (v Viewport) normalize() Viewport {
	v.Zoom = math.Max(0, math.Min(maxZoom, v.Zoom))
	if v.Width <= 0 || v.Height <= 0 {
		d := DefaultViewport()
		v.Width, v.Height = d.Width, d.Height
	}
	return v
}

// Project converts a coordinate to container pixels using spherical Web
// Mercator, with (0,0) at the top-left corner of the viewport.
func (v Viewport) Project(p LatLng) (x, y float64) {
	wx, wy := worldPixel(p, v.Zoom)
	cx, cy := worldPixel(v.Center, v.Zoom)
	return wx - cx + float64(v.Width)/2, wy - cy + float64(v.Height)/2
}

// Contains reports whether a container pixel lies inside the viewport.
func (v Viewport) Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x <= float64(v.Width) && y <= float64(v.Height)
}

func worldPixel(p LatLng, zoom float64) (x, y float64) {
	scale := tileSize * math.Pow(2, zoom)
	sin := math.Sin(p.Lat * math.Pi / 180)
	sin = math.Max(-maxMercatorSin, math.Min(maxMercatorSin, sin))
	x = (p.Lng + 180) / 360 * scale
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * scale
	return x, y
}

// Bounds is a geographic bounding box.
type Bounds struct {
	SouthWest LatLng `json:"southWest"`
	NorthEast LatLng `json:"northEast"`
}

// boundsOf returns the box around markers padded by ratio of its size on
// each side, or nil when there are no markers.
func boundsOf(markers []Marker, ratio float64) *Bounds {
	if len(markers) == 0 {
		return nil
	}
	b := Bounds{
		SouthWest: LatLng{Lat: markers[0].Lat, Lng: markers[0].Lng},
		NorthEast: LatLng{Lat: markers[0].Lat, Lng: markers[0].Lng},
	}
	for _, m := range markers[1:] {
		b.SouthWest.Lat = math.Min(b.SouthWest.Lat, m.Lat)
		b.SouthWest.Lng = math.Min(b.SouthWest.Lng, m.Lng)
		b.NorthEast.Lat = math.Max(b.NorthEast.Lat, m.Lat)
		b.NorthEast.Lng = math.Max(b.NorthEast.Lng, m.Lng)
	}
	latPad := (b.NorthEast.Lat - b.SouthWest.Lat) * ratio
	lngPad := (b.NorthEast.Lng - b.SouthWest.Lng) * ratio
	b.SouthWest.Lat -= latPad
	b.SouthWest.Lng -= lngPad
	b.NorthEast.Lat += latPad
	b.NorthEast.Lng += lngPad
	return &b
}
