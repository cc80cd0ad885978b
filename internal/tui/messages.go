package tui

import (
	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/explorer"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/pokeapi"
)

type resultMsg struct {
	res explorer.Result
}

type detailMsg struct {
	id     int
	item   catalog.Item
	detail *pokeapi.Detail
	err    error
}

type artworkMsg struct {
	id  int
	url string
}

type errMsg struct {
	err error
}
