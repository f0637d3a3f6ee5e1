package analysis

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

var discourseMarkers = wordSet(
	"however", "therefore", "moreover", "furthermore", "nevertheless",
	"consequently", "meanwhile", "additionally", "similarly", "conversely",
)

// Single-word fillers. "you know" is matched as a phrase separately.
var hesitationWords = wordSet("um", "uh", "er", "ah", "hmm", "well", "like")

var subordinators = wordSet(
	"because", "although", "though", "which", "that", "when", "while",
	"if", "since", "unless", "whereas", "whether", "until", "after", "before",
)

var pronouns = wordSet(
	"i", "me", "my", "mine", "myself", "you", "your", "yours", "yourself",
	"he", "him", "his", "himself", "she", "her", "hers", "herself",
	"it", "its", "itself", "we", "us", "our", "ours", "ourselves",
	"they", "them", "their", "theirs", "themselves",
	"this", "these", "those", "who", "whom", "whose", "someone", "something",
)

var determiners = wordSet(
	"a", "an", "the", "some", "any", "each", "every", "either", "neither",
	"no", "all", "both", "few", "many", "much", "several", "another",
)

var prepositions = wordSet(
	"in", "on", "at", "by", "for", "with", "about", "against", "between",
	"into", "through", "during", "before", "after", "above", "below", "to",
	"from", "up", "down", "of", "off", "over", "under", "around", "near",
	"across", "behind", "beside", "without", "within", "toward", "towards",
)

var conjunctions = wordSet("and", "but", "or", "nor", "so", "yet", "for")

var auxiliaries = wordSet(
	"am", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did",
	"will", "would", "shall", "should", "can", "could", "may", "might", "must",
)

var stopwords = wordSet(
	"a", "an", "the", "and", "but", "or", "nor", "so", "yet", "if", "then",
	"i", "me", "my", "we", "our", "you", "your", "he", "him", "his", "she",
	"her", "it", "its", "they", "them", "their", "this", "that", "these",
	"those", "is", "am", "are", "was", "were", "be", "been", "being", "have",
	"has", "had", "do", "does", "did", "will", "would", "shall", "should",
	"can", "could", "may", "might", "must", "in", "on", "at", "by", "for",
	"with", "about", "to", "from", "of", "up", "down", "out", "over", "into",
	"as", "not", "no", "just", "very", "too", "there", "here", "what", "which",
	"who", "when", "where", "why", "how", "all", "any", "some", "such", "than",
	"um", "uh", "er", "ah", "hmm", "well", "like", "oh", "yeah", "okay",
)

// Sentiment valences on a -4..4 scale.
var sentimentLexicon = map[string]float64{
	"good": 1.9, "great": 3.1, "happy": 2.7, "love": 3.2, "enjoy": 2.2,
	"nice": 1.8, "wonderful": 2.7, "beautiful": 2.9, "glad": 2.0, "fine": 0.8,
	"pleasant": 2.3, "calm": 1.3, "fun": 2.3, "best": 3.2, "better": 1.9,
	"excellent": 3.2, "hope": 1.9, "lovely": 2.8, "delighted": 2.9, "proud": 2.1,
	"friend": 2.2, "friends": 2.1, "laugh": 2.6, "smile": 2.5, "warm": 0.9,
	"bad": -2.5, "sad": -2.1, "hate": -2.7, "terrible": -2.5, "awful": -2.0,
	"angry": -2.3, "afraid": -2.0, "worried": -1.2, "worry": -1.9, "tired": -1.9,
	"confused": -1.3, "lost": -1.3, "forget": -0.9, "forgot": -1.3, "pain": -2.3,
	"sick": -2.3, "lonely": -2.4, "difficult": -1.5, "hard": -0.4, "scared": -2.2,
	"worse": -2.1, "worst": -3.1, "poor": -2.1, "upset": -1.6, "cry": -2.1,
}

// Contractions tokenize as "didn" + "t", so both halves are listed.
var negators = wordSet(
	"not", "no", "never", "nothing", "nobody", "none", "neither", "nor", "cannot",
	"t", "don", "didn", "doesn", "isn", "wasn", "weren", "aren", "couldn", "wouldn",
	"shouldn", "won",
)

var intensifiers = wordSet(
	"very", "really", "extremely", "so", "incredibly", "absolutely", "quite", "totally",
)

// Semantic categories used by picture-description style prompts.
var semanticCategories = map[string]map[string]struct{}{
	"people": wordSet(
		"man", "woman", "boy", "girl", "child", "children", "mother", "father",
		"person", "people", "kid", "kids", "lady", "family", "friend", "friends",
	),
	"places": wordSet(
		"kitchen", "house", "home", "park", "street", "store", "school", "garden",
		"room", "city", "town", "office", "window", "road", "beach", "hospital",
	),
	"transportation": wordSet(
		"car", "bus", "train", "bike", "bicycle", "plane", "boat", "truck",
		"taxi", "subway", "walk", "drive", "ride",
	),
}

var articulationClusters = []string{"str", "spr", "thr", "scr"}

var temporalWords = wordSet(
	"yesterday", "today", "tomorrow", "tonight", "now", "later", "soon", "ago",
	"morning", "afternoon", "evening", "night", "day", "days", "week", "weeks",
	"month", "months", "year", "years", "hour", "hours", "minute", "minutes",
	"weekend", "recently", "earlier", "once", "always", "never", "sometimes",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"january", "february", "april", "june", "july", "august",
	"september", "october", "november", "december",
)

// Suffixes that mark a long word as an abstract noun.
var nominalSuffixes = []string{"tion", "sion", "ment", "ness", "ity", "ance", "ence", "ism"}

func inSet(set map[string]struct{}, word string) bool {
	_, ok := set[word]
	return ok
}
