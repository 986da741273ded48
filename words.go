package main

// The shared word sequence every team races through, in order of increasing
// difficulty. The final entry is a sentinel: dispatching it means the team has
// finished the game.
var words = []string{
	"cat",
	"animal",
	"umbrella",
	"acronym",
	"difficult",
	"synchronous",
	"appropriation",
	"sophisticated",
	"apprenticeship",
	"designation",
	sentinelWord,
}

const sentinelWord = "End"

// wordAt returns the word for a given level. Levels never advance past the
// sentinel during play, so the modulo only keeps the lookup total.
func wordAt(level int) string {
	return words[level%len(words)]
}
