package classify

// Verdict labels for the binary skin-lesion classifier. These values are part
// of the persisted record contract and must not change.
const (
	VerdictCancer    = "Cancer"
	VerdictNonCancer = "Non-cancer"
)

const (
	suggestionCancer    = "Segera periksa ke dokter!"
	suggestionNonCancer = "Penyakit kanker tidak terdeteksi."
)

// Classification pairs a verdict with its fixed recommendation text.
type Classification struct {
	Result     string
	Suggestion string
}

// Classify maps a model score in [0,1] to a verdict. The comparison is a
// strict greater-than: a score of exactly 0.5 classifies as Non-cancer.
func Classify(score float32) Classification {
	if score > 0.5 {
		return Classification{Result: VerdictCancer, Suggestion: suggestionCancer}
	}
	return Classification{Result: VerdictNonCancer, Suggestion: suggestionNonCancer}
}
