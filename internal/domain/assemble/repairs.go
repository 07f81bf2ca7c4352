package assemble

import "strings"

// Repair is one literal substitution applied to a fallback transcript.
type Repair struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// RepairTable fixes known chunk-boundary artifacts: when segments are
// transcribed individually, words duplicated or split across a boundary show
// up in the joined text. The table is data and not meant to be exhaustive;
// extend it as new artifacts are observed.
type RepairTable []Repair

// DefaultRepairTable returns the built-in substitutions.
func DefaultRepairTable() RepairTable {
	return RepairTable{
		{From: "the the", To: "the"},
		{From: "a a", To: "a"},
		{From: "is is", To: "is"},
		{From: "to to", To: "to"},
		{From: "you you", To: "you"},
		{From: "what what", To: "what"},
		{From: "i i", To: "i"},
		{From: "do do", To: "do"},
	}
}

// Apply runs every substitution on word boundaries and collapses whitespace.
func (t RepairTable) Apply(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if collapsed == "" {
		return ""
	}

	padded := " " + collapsed + " "
	for _, r := range t {
		from := " " + r.From + " "
		to := " " + r.To + " "
		for strings.Contains(padded, from) {
			padded = strings.ReplaceAll(padded, from, to)
		}
	}
	return strings.TrimSpace(padded)
}
