package sentiment

// Minimal opinion lexicon tuned for business correspondence. Scoring counts
// polarity hits, with single-token negation flipping the polarity of the
// following word.

var positiveWords = map[string]struct{}{
	"accept": {}, "agree": {}, "appreciate": {}, "approved": {}, "awesome": {},
	"benefit": {}, "best": {}, "confident": {}, "delighted": {}, "effective": {},
	"excellent": {}, "fantastic": {}, "glad": {}, "good": {}, "grateful": {},
	"great": {}, "happy": {}, "helpful": {}, "impressive": {}, "love": {},
	"outstanding": {}, "perfect": {}, "pleased": {}, "positive": {}, "progress": {},
	"recommend": {}, "reliable": {}, "satisfied": {}, "success": {}, "successful": {},
	"thank": {}, "thanks": {}, "valuable": {}, "welcome": {}, "win": {}, "wonderful": {},
}

var negativeWords = map[string]struct{}{
	"angry": {}, "awful": {}, "bad": {}, "broken": {}, "cancel": {}, "cancelled": {},
	"complaint": {}, "concern": {}, "damage": {}, "decline": {}, "declined": {},
	"defect": {}, "delay": {}, "delayed": {}, "disappointed": {}, "dispute": {},
	"error": {}, "fail": {}, "failed": {}, "failure": {}, "fault": {}, "horrible": {},
	"issue": {}, "late": {}, "loss": {}, "missing": {}, "mistake": {}, "overdue": {},
	"poor": {}, "problem": {}, "refuse": {}, "refused": {}, "reject": {}, "rejected": {},
	"terrible": {}, "unacceptable": {}, "unhappy": {}, "urgent": {}, "worst": {}, "wrong": {},
}

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "without": {}, "cannot": {}, "hardly": {},
}
