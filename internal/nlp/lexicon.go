package nlp

// 按经验级别分组的动词原形
var (
	SeniorVerbs    = []string{"lead", "manage", "direct", "oversee", "supervise", "orchestrate", "govern"}
	MidSeniorVerbs = []string{"develop", "design", "analyze", "implement", "coordinate", "execute", "strategize"}
	MidJuniorVerbs = []string{"assist", "support", "collaborate", "participate", "aid", "facilitate", "contribute"}
	// EntryVerbs 不参与级别判定，只用于识别
	EntryVerbs = []string{"learn", "train", "help", "shadow", "study", "observe", "practice", "attend", "build", "maintain", "test", "write", "create", "deliver", "improve", "launch", "mentor", "spearhead"}
)

var irregularVerbs = map[string]string{
	"led":      "lead",
	"oversaw":  "oversee",
	"overseen": "oversee",
	"built":    "build",
	"wrote":    "write",
	"written":  "write",
	"taught":   "teach",
	"learnt":   "learn",
}

// defaultNameNoise 出现在候选片段中即判定为非人名的词
var defaultNameNoise = []string{
	// 简历标题与栏目
	"resume", "cv", "curriculum", "vitae", "profile", "summary", "objective", "contact",
	"education", "experience", "skills", "skill", "projects", "project", "certifications",
	"achievements", "awards", "honors", "references", "work", "professional", "technical",
	"email", "phone", "mobile", "address", "linkedin", "github", "portfolio", "personal",
	// 岗位
	"engineer", "developer", "manager", "analyst", "consultant", "specialist", "director",
	"designer", "architect", "administrator", "coordinator", "scientist", "intern", "lead",
	"officer", "programmer", "technician", "executive", "assistant", "associate", "senior",
	"junior", "software", "data", "product", "marketing", "sales", "team", "head", "chief",
	// 机构与学位
	"university", "college", "institute", "school", "academy", "polytechnic", "inc", "llc",
	"ltd", "corp", "corporation", "company", "technologies", "solutions", "systems", "labs",
	"group", "bachelor", "master", "doctor", "science", "arts", "technology", "engineering",
	"business", "administration", "computer", "degree", "diploma", "gpa",
	// 时间
	"january", "february", "march", "april", "may", "june", "july", "august", "september",
	"october", "november", "december", "jan", "feb", "mar", "apr", "jun", "jul", "aug",
	"sep", "sept", "oct", "nov", "dec", "present", "current",
	// 地点
	"new", "york", "san", "francisco", "los", "angeles", "city", "street", "road", "avenue",
	"united", "states", "kingdom", "remote",
	// 技术
	"python", "java", "javascript", "typescript", "golang", "sql", "aws", "docker",
	"kubernetes", "react", "linux", "git", "html", "css", "machine", "learning",
}

var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true,
	"DE": true, "DC": true, "FL": true, "GA": true, "HI": true, "ID": true, "IL": true,
	"IN": true, "IA": true, "KS": true, "KY": true, "LA": true, "ME": true, "MD": true,
	"MA": true, "MI": true, "MN": true, "MS": true, "MO": true, "MT": true, "NE": true,
	"NV": true, "NH": true, "NJ": true, "NM": true, "NY": true, "NC": true, "ND": true,
	"OH": true, "OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true,
	"TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true,
}

var countries = map[string]bool{
	"USA": true, "US": true, "UK": true, "UAE": true, "Canada": true, "India": true,
	"China": true, "Germany": true, "France": true, "Spain": true, "Italy": true,
	"Netherlands": true, "Ireland": true, "Australia": true, "Singapore": true,
	"Japan": true, "Brazil": true, "Mexico": true, "Nigeria": true, "Kenya": true,
	"Pakistan": true, "Bangladesh": true, "Philippines": true, "Vietnam": true,
	"Poland": true, "Sweden": true, "Switzerland": true, "Israel": true,
	"United States": true, "United Kingdom": true, "New Zealand": true, "South Africa": true,
}
