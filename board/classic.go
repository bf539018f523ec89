package board

// Classic 内置的默认棋盘，20 格，覆盖所有格子类型
func Classic() *Board {
	tiles := []Tile{
		{Position: 0, Type: TileNormal, Label: "Salida", Color: "#ffffff"},
		{Position: 1, Type: TileQuestion, Label: "Pregunta", Color: "#4fc3f7"},
		{Position: 2, Type: TileNormal, Label: "Camino", Color: "#ffffff"},
		{Position: 3, Type: TileStar, Label: "Estrella", Color: "#ffd54f"},
		{Position: 4, Type: TileEvent, Label: "Evento", Color: "#ba68c8"},
		{Position: 5, Type: TileNormal, Label: "Camino", Color: "#ffffff"},
		{Position: 6, Type: TileTrap, Label: "Trampa", Color: "#e57373"},
		{Position: 7, Type: TileQuestion, Label: "Pregunta", Color: "#4fc3f7"},
		{Position: 8, Type: TileNormal, Label: "Camino", Color: "#ffffff"},
		{Position: 9, Type: TileDuel, Label: "Duelo", Color: "#ff8a65"},
		{Position: 10, Type: TileNormal, Label: "Camino", Color: "#ffffff"},
		{Position: 11, Type: TileEvent, Label: "Evento", Color: "#ba68c8"},
		{Position: 12, Type: TileStar, Label: "Estrella", Color: "#ffd54f"},
		{Position: 13, Type: TileQuestion, Label: "Pregunta", Color: "#4fc3f7"},
		{Position: 14, Type: TileNormal, Label: "Camino", Color: "#ffffff"},
		{Position: 15, Type: TileTrap, Label: "Trampa", Color: "#e57373"},
		{Position: 16, Type: TileEvent, Label: "Evento", Color: "#ba68c8"},
		{Position: 17, Type: TileNormal, Label: "Camino", Color: "#ffffff"},
		{Position: 18, Type: TileDuel, Label: "Duelo", Color: "#ff8a65"},
		{Position: 19, Type: TileNormal, Label: "Camino", Color: "#ffffff"},
	}

	return &Board{
		ID:            "classic",
		Name:          "Classic Board",
		Theme:         "classic",
		Tiles:         tiles,
		StarPositions: []int{3, 12},
	}
}
