package service

import "github.com/wricardo/gamemaps/catalog/model"

// GameInfo summarises one game
type GameInfo struct {
	ID       string `json:"id"`
	MapCount int    `json:"map_count"`
}

// MapInfo summarises one map of a game
type MapInfo struct {
	Game          string `json:"game"`
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ImageWidth    int    `json:"image_width"`
	ImageHeight   int    `json:"image_height"`
	Tiled         bool   `json:"tiled"`
	GridSystem    string `json:"grid_system,omitempty"`
	CategoryCount int    `json:"category_count"`
	MarkerCount   int    `json:"marker_count"`
}

// MapDetail is the render-ready view of one dataset
type MapDetail struct {
	Game string `json:"game"`
	model.RenderView
}
