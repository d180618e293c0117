package engine

import (
	"fmt"
	"strings"
)

// BoardColumns is the number of columns used to lay out n cards: the
// smallest square that holds them.
func BoardColumns(n int) int {
	cols := 1
	for cols*cols < n {
		cols++
	}
	return cols
}

// cardLabel shows matched faces in brackets and hides face-down cards.
func cardLabel(card CardView) string {
	switch {
	case card.Matched:
		return "[" + string(card.FaceKey) + "]"
	case card.Flipped:
		return string(card.FaceKey)
	default:
		return "??"
	}
}

func labelWidth(cards []CardView) int {
	width := 2
	for _, card := range cards {
		if l := len(cardLabel(card)); l > width {
			width = l
		}
	}
	return width
}

// CellWidth is the printed width of one cell of a board of cards.
func CellWidth(cards []CardView) int {
	return labelWidth(cards) + 5
}

// FormatBoard renders the cards as a grid of "index:label" cells.
func FormatBoard(cards []CardView) string {
	return FormatBoardColumns(cards, BoardColumns(len(cards)))
}

// FormatBoardColumns is FormatBoard with a fixed number of columns.
func FormatBoardColumns(cards []CardView, cols int) string {
	if cols < 1 {
		cols = 1
	}
	if len(cards) == 0 {
		return "(empty board)\n"
	}

	width := labelWidth(cards)
	var b strings.Builder
	for i, card := range cards {
		fmt.Fprintf(&b, "%2d:%-*s", i, width, cardLabel(card))
		if (i+1)%cols == 0 || i == len(cards)-1 {
			b.WriteString("\n")
		} else {
			b.WriteString("  ")
		}
	}
	return b.String()
}
