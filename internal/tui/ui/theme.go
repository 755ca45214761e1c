package ui

import "github.com/gdamore/tcell/v2"

// Theme holds the color palette for the TUI.
type Theme struct {
	BgColor          tcell.Color
	FgColor          tcell.Color
	BorderColor      tcell.Color
	BorderFocusColor tcell.Color
	TableHeaderFg    tcell.Color
	TableCursorFg    tcell.Color
	TableCursorBg    tcell.Color
	TitleColor       tcell.Color
	OwnMessageColor  tcell.Color
	SeparatorColor   tcell.Color
	OnlineColor      tcell.Color
	FlashErrColor    tcell.Color
}

// DefaultTheme returns the dark green-accented default palette.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:          tcell.ColorBlack,
		FgColor:          tcell.ColorLightGray,
		BorderColor:      tcell.ColorDarkSeaGreen,
		BorderFocusColor: tcell.ColorSpringGreen,
		TableHeaderFg:    tcell.ColorWhite,
		TableCursorFg:    tcell.ColorBlack,
		TableCursorBg:    tcell.ColorSpringGreen,
		TitleColor:       tcell.ColorSpringGreen,
		OwnMessageColor:  tcell.ColorPaleGreen,
		SeparatorColor:   tcell.ColorGray,
		OnlineColor:      tcell.ColorGreen,
		FlashErrColor:    tcell.ColorOrangeRed,
	}
}
