package analyzer

import "regexp"

// technique is a named rhetorical device detected in a hook
type technique struct {
	label   string
	pattern *regexp.Regexp
}

// trigger is a weighted emotional driver detected anywhere in the body
type trigger struct {
	label   string
	pattern *regexp.Regexp
	weight  int
}

// trait is a personality marker used by the tone analyzer
type trait struct {
	label   string
	pattern *regexp.Regexp
}

// archetype maps a pair of traits onto a voice name
type archetype struct {
	traits []string
	voice  string
}

// Scan order matters: technique and trigger labels are reported in table order.
var hookTechniques = []technique{
	{"Question Hook", regexp.MustCompile(`(?i)^(what|why|how|when|where|who)\s`)},
	{"Listicle Hook", regexp.MustCompile(`(?i)\b\d+\s+(ways?|tips?|steps?|reasons?|things?|mistakes?|habits?|rules?|secrets?|lessons?|signs?|examples?)\b`)},
	{"Personal Story Hook", regexp.MustCompile(`(?i)^(I|we|my)\s`)},
	{"Universal Statement", regexp.MustCompile(`(?i)^(most|everyone|nobody|no one|people)\s`)},
	{"Contrarian Twist", regexp.MustCompile(`(?i)\b(but|however|yet|actually|instead|except)\b`)},
	{"Negative Framing", regexp.MustCompile(`(?i)\b(don'?t|stop|never|avoid|quit)\b`)},
	{"Visualization", regexp.MustCompile(`(?i)\b(imagine|picture|think about|what if)\b`)},
	{"Direct Address", regexp.MustCompile(`(?i)\b(you|your|you're|you'll)\b`)},
	{"Simplicity Promise", regexp.MustCompile(`(?i)\b(just|simply|only|exactly)\b`)},
	{"Resolution Hook", regexp.MustCompile(`(?i)\b(finally|at last)\b`)},
}

var (
	numericLeadPattern = regexp.MustCompile(`^\d`)
	subtitlePattern    = regexp.MustCompile(`[:—–-]\s`)
	emojiPattern       = regexp.MustCompile(`[\x{1F600}-\x{1F9FF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}]`)
)

// getPowerWords returns words that evoke urgency, authority, danger or exclusivity
func getPowerWords() map[string]bool {
	words := []string{
		"secret", "shocking", "surprising", "revealed", "truth", "mistake",
		"proven", "guaranteed", "discover", "warning", "urgent", "breaking",
		"exclusive", "insider", "hidden", "banned", "controversial", "dangerous",
		"extraordinary", "incredible", "unbelievable", "remarkable", "stunning",
		"devastating", "brilliant", "genius", "powerful", "deadly", "critical",
		"essential", "ultimate", "definitive", "complete", "massive", "tiny",
		"silent", "forgotten", "unknown", "rare", "strange", "weird",
	}

	powerWords := make(map[string]bool, len(words))
	for _, word := range words {
		powerWords[word] = true
	}
	return powerWords
}

var powerWords = getPowerWords()

var (
	shortFormCTAPattern  = regexp.MustCompile(`(?i)\?|comment|reply|share|repost|follow|tag|agree|disagree|thoughts`)
	headingPattern       = regexp.MustCompile(`^#{1,3}\s|^[A-Z][A-Z\s]{5,}$`)
	bulletPattern        = regexp.MustCompile(`^\s*[-*•]\s`)
	engagementPattern    = regexp.MustCompile(`(?i)\?|subscribe|follow|share|leave a comment|let me know|what do you think`)
	closingSignalPattern = regexp.MustCompile(`(?i)\?|comment|reply|share|thoughts`)
	digitPattern         = regexp.MustCompile(`\b\d`)
)

var emotionTriggers = []trigger{
	{"Curiosity", regexp.MustCompile(`(?i)\b(secret|hidden|reveal|discover|uncover)\b`), 8},
	{"FOMO", regexp.MustCompile(`(?i)\b(miss out|left behind|too late|last chance|hurry|limited)\b`), 7},
	{"Personal Connection", regexp.MustCompile(`(?i)\b(I|me|my|we|our)\b`), 4},
	{"Direct Address", regexp.MustCompile(`(?i)\b(you|your|you're)\b`), 5},
	{"Authority", regexp.MustCompile(`(?i)\b(data|research|study|proven|evidence|statistic|percent|\d+%)\b`), 6},
	{"Social Proof", regexp.MustCompile(`(?i)\b(everyone|most people|they all|nobody|no one)\b`), 5},
	{"Contrarian", regexp.MustCompile(`(?i)\b(wrong|myth|lie|actually|truth is|contrary)\b`), 7},
	{"Pain Point", regexp.MustCompile(`(?i)\b(struggle|fail|pain|fear|worry|stress|anxiety|overwhelm)\b`), 6},
	{"Aspiration", regexp.MustCompile(`(?i)\b(dream|achieve|success|grow|transform|unlock|freedom|wealth)\b`), 6},
	{"Vulnerability", regexp.MustCompile(`(?i)\b(honest|vulnerable|admit|confess|embarrass|mistake|failure)\b`), 8},
	{"Urgency", regexp.MustCompile(`(?i)\b(now|today|immediately|right now|this week)\b`), 5},
	{"Value Framing", regexp.MustCompile(`(?i)\b(free|save|cheap|cost|expensive|worth|value|price)\b`), 4},
	{"Storytelling", regexp.MustCompile(`(?i)\b(story|once|remember|years ago|when I was)\b`), 7},
	{"Simplicity", regexp.MustCompile(`(?i)\b(simple|easy|quick|fast|just|only)\b`), 4},
}

var passivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(was|were|is|are|been|being|be)\s+\w+ed\b`),
	regexp.MustCompile(`(?i)\b(was|were|is|are|been|being|be)\s+\w+en\b`),
	regexp.MustCompile(`(?i)\b(got|get|gets|getting)\s+\w+ed\b`),
}

var (
	hedgePattern          = regexp.MustCompile(`(?i)\b(maybe|perhaps|might|could|possibly|somewhat|sort of|kind of|a bit|a little|I think|I guess|I feel like|probably|seems like|tends to|appears to)\b`)
	assertivePattern      = regexp.MustCompile(`(?i)\b(always|never|must|definitely|absolutely|clearly|obviously|undeniably|without doubt|the truth is|the fact is|here's the thing|let me be clear|period|full stop)\b`)
	casualPattern         = regexp.MustCompile(`(?i)\b(lol|lmao|tbh|ngl|fr|bruh|dude|bro|gonna|wanna|gotta|kinda|y'all|omg|btw|imo|imho|haha|damn|hell|crap|shit|wtf|af)\b|\.{3}|!{2,}|\?{2,}`)
	formalPattern         = regexp.MustCompile(`(?i)\b(furthermore|moreover|consequently|nevertheless|notwithstanding|henceforth|whereas|thereby|thus|hence|accordingly|in conclusion|it is worth noting|one might argue)\b`)
	conversationalPattern = regexp.MustCompile(`(?i)\b(look|listen|here's the thing|let me tell you|you know what|right\?|okay so|so here's|the thing is|real talk|honestly|between you and me)\b`)
	contractionPattern    = regexp.MustCompile(`\w+'\w+`)
)

var personalityTraits = []trait{
	{"data-driven", regexp.MustCompile(`(?i)\b(data|research|study|evidence|statistic|percent|\d+%|analysis|metric)\b`)},
	{"storyteller", regexp.MustCompile(`(?i)\b(story|once upon|I remember|years ago|when I was|let me share|true story)\b`)},
	{"provocative", regexp.MustCompile(`(?i)\b(actually|wrong|myth|contrary|unpopular opinion|hot take|controversial)\b`)},
	{"authentic", regexp.MustCompile(`(?i)\b(honest|vulnerable|admit|confess|embarrass|mistake|I failed|I struggled|truth is)\b`)},
	{"systematic", regexp.MustCompile(`(?i)\b(step \d|first|second|third|framework|system|process|method|strategy|blueprint)\b`)},
	{"witty", regexp.MustCompile(`(?i)\b(funny|hilarious|joke|laugh|comedy|ridiculous|absurd|ironic|sarcas)`)},
	{"inspirational", regexp.MustCompile(`(?i)\b(inspire|dream|vision|believe|passion|purpose|mission|impact|change the world)\b`)},
	{"practical", regexp.MustCompile(`(?i)\b(practical|actionable|concrete|specific|exactly how|here's how|do this|try this)\b`)},
}

// First declared archetype wins ties.
var voiceArchetypes = []archetype{
	{[]string{"data-driven", "systematic"}, "Strategic Analyst"},
	{[]string{"storyteller", "authentic"}, "Vulnerable Narrator"},
	{[]string{"provocative", "witty"}, "Sharp Contrarian"},
	{[]string{"inspirational", "authentic"}, "Passionate Advocate"},
	{[]string{"practical", "systematic"}, "Tactical Guide"},
	{[]string{"witty", "practical"}, "Witty Educator"},
	{[]string{"data-driven", "provocative"}, "Myth Buster"},
	{[]string{"storyteller", "inspirational"}, "Visionary Storyteller"},
	{[]string{"authentic", "practical"}, "Real Talk Coach"},
	{[]string{"provocative", "systematic"}, "Framework Breaker"},
}

var singleTraitVoices = map[string]string{
	"data-driven":   "Data-Driven Writer",
	"storyteller":   "Natural Storyteller",
	"provocative":   "Bold Contrarian",
	"authentic":     "Authentic Voice",
	"systematic":    "Systems Thinker",
	"witty":         "Sharp Wit",
	"inspirational": "Inspirational Writer",
	"practical":     "Tactical Writer",
}
