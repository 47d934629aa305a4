package classification

// NSFWThreshold is the score above which an image is flagged.
const NSFWThreshold = 0.8

type Verdict string

const (
	VerdictFlagged Verdict = "flagged"
	VerdictClear   Verdict = "clear"
)

// Result is the model's structured answer for one image.
type Result struct {
	Title string  `json:"title" mapstructure:"title"`
	NSFW  float64 `json:"nsfw" mapstructure:"nsfw"`
}

// Classify maps a result onto a verdict. A score equal to the threshold is clear.
func Classify(result Result) Verdict {
	if result.NSFW > NSFWThreshold {
		return VerdictFlagged
	}
	return VerdictClear
}

func (v Verdict) Flagged() bool {
	return v == VerdictFlagged
}
