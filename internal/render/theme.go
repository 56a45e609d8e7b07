package render

// Theme holds colors for graph rendering.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	// Edge colors by jump kind category.
	EdgeBoring     string // ordinary branches and fall-throughs
	EdgeCall       string
	EdgeFakeReturn string // synthesized post-call continuation
	EdgeReturn     string
	EdgeOther      string // syscalls, traps, IR-internal kinds

	// Node accents.
	StubFill     string // placeholder nodes for addresses without a block
	ExternalText string // targets outside the rendered function
}

// Default is a geometric, monochrome theme with sparse color.
var Default = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EdgeBoring:     "#424242", // dark gray
	EdgeCall:       "#0B3D91", // blue
	EdgeFakeReturn: "#9E9E9E", // gray
	EdgeReturn:     "#00695C", // teal
	EdgeOther:      "#FC3D21", // red

	StubFill:     "#ECEFF1",
	ExternalText: "#9E9E9E",
}
