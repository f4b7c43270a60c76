package dialogue

import "regexp"

// Category keys a clarification question template.
type Category string

const (
	CategoryHeadache   Category = "headache"
	CategoryStomach    Category = "stomach"
	CategoryFever      Category = "fever"
	CategoryMedication Category = "medication"
	CategoryGeneral    Category = "general"
	CategorySymptom    Category = "symptom_vague"
)

// vaguePatterns flag generic requests for advice, catch-all phrasing and
// unspecified discomfort words. A match means the intent is too broad to
// retrieve against directly.
var vaguePatterns = []*regexp.Regexp{
	regexp.MustCompile(`怎么办`),
	regexp.MustCompile(`怎么(样)?(办|做)`),
	regexp.MustCompile(`如何(保持|改善|治疗)`),
	regexp.MustCompile(`有什么(建议|办法|方法)`),
	regexp.MustCompile(`该(怎么|如何)`),
	regexp.MustCompile(`帮(我)?看看`),
	regexp.MustCompile(`不舒服`),
	regexp.MustCompile(`有问题`),
	regexp.MustCompile(`出(了)?问题`),
	regexp.MustCompile(`疼`),
	regexp.MustCompile(`痛`),
	regexp.MustCompile(`难受`),
}

// missingContextPatterns match domain intents whose answers require
// attributes the query does not carry (duration, severity, age, allergy
// history, body site).
var missingContextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(吃|用|服).*药`),
	regexp.MustCompile(`能(不能)?吃`),
	regexp.MustCompile(`治疗`),
	regexp.MustCompile(`发烧`),
	regexp.MustCompile(`头疼`),
	regexp.MustCompile(`肚子`),
}

// questionRule maps query content to a question category. Rules are
// evaluated in order; the first match wins.
type questionRule struct {
	match    func(query string) bool
	category Category
}

var questionRules = []questionRule{
	{matchAny("头疼", "头痛", "头昏"), CategoryHeadache},
	{matchAny("肚子", "胃", "腹痛", "腹泻"), CategoryStomach},
	{matchAny("发烧", "发热"), CategoryFever},
	{regexp.MustCompile(`(吃|用|服).*药`).MatchString, CategoryMedication},
}

// templates holds the deterministic clarification question per category.
var templates = map[Category]string{
	CategoryHeadache:   "为了更好地帮助您，您能描述一下是哪种类型的头痛吗？比如是刺痛、胀痛、跳痛还是其他？头痛主要在哪个部位？持续多久了？",
	CategoryStomach:    "您说的肚子不舒服，具体是什么感觉？是腹痛、腹胀、恶心还是其他？这种情况持续多久了？",
	CategoryFever:      "请问您的体温大概多少度？发烧持续多长时间了？有没有其他伴随症状，比如咳嗽、喉咙痛等？",
	CategoryMedication: "在给出用药建议之前，请问您目前有哪些具体症状？是否有已知的药物过敏史？",
	CategoryGeneral:    "您的问题比较宽泛。能否具体说一下您最关心的是哪方面？例如：预防措施、饮食建议、运动建议或具体症状的应对方法？",
	CategorySymptom:    "为了更好地帮助您，您能具体描述一下您的症状的情况吗？例如：症状持续时间、严重程度、伴随的其他不适等。",
}
