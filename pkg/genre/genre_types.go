// Package genre holds the data model shared by every stage of the genre-map
// pipeline and by the serving layer.
package genre

// Record is a catalog entry as loaded from the genre catalog file.
type Record struct {
	ID          int    `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// Text is the string submitted to the embedding model for this record.
func (r Record) Text() string {
	return r.Name + ": " + r.Description
}

// Point is a genre projected into the 2D map. Coordinates carry no fixed
// scale or orientation.
type Point struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// ColoredPoint is a Point with its blended display color. Field order
// matches the points artifact: x, y, name, color, id.
type ColoredPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
	ID    int     `json:"id"`
}

// Point drops the color.
func (c ColoredPoint) Point() Point {
	return Point{ID: c.ID, Name: c.Name, X: c.X, Y: c.Y}
}

// Coordinate is an edge endpoint.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is one spanning-tree edge of the map. Color comes from the source
// endpoint.
type Edge struct {
	Source Coordinate `json:"source"`
	Target Coordinate `json:"target"`
	Color  string     `json:"color"`
}
