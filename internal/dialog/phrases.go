package dialog

import (
	"fmt"

	"github.com/avoronova/plainnews/internal/content"
)

// Spoken phrases of the skill. Kept together so the voice can be retuned in
// one place.
const (
	// PhraseApology is the generic soft-failure reply; also used by the
	// transport layer when a turn panics or times out.
	PhraseApology = "Ой, что-то пошло не так. Попробуйте ещё раз чуть позже."

	phraseGreeting = "Привет! Это навык «Обычные новости». Назовите дату или ключевое слово — " +
		"и я расскажу, что об этом писали."

	phraseFutureDate = "Эта дата ещё не наступила, так что новостей оттуда у меня нет. " +
		"Назовите прошедшую дату."

	phraseSayYesOrNo = "Скажите «да» или «нет»."

	phraseWantDetails = "Хотите узнать подробнее?"

	phraseContinue = "Продолжить?"

	phraseWantAnother = "Рассказать ещё одну новость?"

	phraseWantExtra = "У этой новости есть продолжение по ссылке. Рассказать вместо него что-нибудь свежее?"

	phraseOkayAnother = "Хорошо. Рассказать ещё одну новость?"

	phraseBackToStart = "Хорошо. Назовите дату или ключевое слово, если захотите ещё новостей."

	phraseAnotherIntro = "Вот другая:"

	phraseNoFreshExtra = "Свежего ничего не нашлось."
)

// phraseNoNews reports an empty pool for the given key.
func phraseNoNews(key content.Key) string {
	switch key.Kind {
	case content.KeyDate:
		return fmt.Sprintf("За %s нет публикаций. Назовите другую дату или ключевое слово.",
			key.Day.Format("02.01.2006"))
	case content.KeyKeyword:
		return fmt.Sprintf("По слову «%s» нет публикаций за последние дни. Попробуйте другое слово.",
			key.Word)
	default:
		return "Сегодня пока нет публикаций. Попробуйте чуть позже."
	}
}
