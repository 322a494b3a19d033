package correct

// Phrases are canonical whole-line headings and fixed expressions.
var Phrases = []string{
	"ДОГОВОР",
	"I. ПРЕДМЕТ ДОГОВОРА",
	"II. ЦЕНА ТОВАРА, ОБЩАЯ СТОИМОСТЬ ДОГОВОРА",
	"III. КАЧЕСТВО, УПАКОВКА И МАРКИРОВКА",
	"IV. ПРИЕМКА ТОВАРА",
	"V. ПРЕТЕНЗИИ",
	"VI. СРОКИ И ПОРЯДОК ПОСТАВКИ",
	"VII. ПОРЯДОК РАСЧЕТОВ",
	"VIII. ОТВЕТСТВЕННОСТЬ СТОРОН",
	"IX. ФОРС-МАЖОР",
	"X. АРБИТРАЖ",
	"XI. ПРОЧИЕ УСЛОВИЯ",
	"Инкотермс 2010",
	"Продавец",
	"Покупатель",
	"Республика Беларусь",
	"Республика Казахстан",
	"товарная накладная",
	"сертификат качества",
	"сертификат происхождения",
	"железнодорожная накладная",
	"корректировочный акт",
	"счет-фактура",
}

// Terms are single domain words that suspicious tokens are snapped to.
var Terms = []string{
	"Договор", "Предмет", "Цена", "Товара", "Стоимость", "Качество", "Упаковка", "Маркировка",
	"Приемка", "Претензии", "Сроки", "Порядок", "Поставки", "Расчетов", "Ответственность",
	"Форс-мажор", "Арбитраж", "Прочие", "Условия", "Продавец", "Покупатель", "Инкотермс",
	"Республика", "Беларусь", "Казахстан", "накладная", "паспорт", "декларация", "счет-фактура",
	"происхождения", "качества", "железнодорожная", "корректировочный", "акт",
}

const (
	// PhraseCutoff is the minimum similarity for a whole-line phrase snap.
	PhraseCutoff = 0.82
	// TermCutoff is the minimum similarity for a single-token term snap.
	TermCutoff = 0.90
)
