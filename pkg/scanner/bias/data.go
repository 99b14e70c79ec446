package bias

// Biased generalizations grouped by category. Matching is case-insensitive
// substring search, a hit is LOW severity. The slice is ordered so repeated
// scans of the same text report violations in the same order.
var biasPhrases = []struct {
	category string
	phrases  []string
}{
	{"gender", []string{
		"women are bad at",
		"women can't",
		"men are better at",
		"men are superior",
		"girls don't belong in",
		"a woman's place is",
	}},
	{"age", []string{
		"old people can't",
		"boomers are all",
		"young people are lazy",
		"millennials are entitled",
	}},
	{"nationality", []string{
		"people from that country are",
		"immigrants are all",
		"foreigners always",
	}},
	{"religion", []string{
		"all muslims are",
		"all christians are",
		"all jews are",
		"atheists have no morals",
	}},
	{"disability", []string{
		"disabled people can't",
		"disabled people are a burden",
	}},
}
