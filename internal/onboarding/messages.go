package onboarding

import (
	"fmt"

	"github.com/roskarniz/regbot/internal/regapi"
)

// ContactButtonLabel is the caption of the share-contact button.
const ContactButtonLabel = "📱 Поделиться номером"

const (
	msgWelcome = "👋 Добро пожаловать в Роскарниз!\n\n" +
		"Для регистрации на сайте нажмите кнопку ниже, " +
		"чтобы поделиться своим номером телефона."
	msgUseButton     = "❌ Пожалуйста, используйте кнопку для отправки номера телефона."
	msgNotOwnContact = "❌ Пожалуйста, отправьте свой собственный номер телефона."
	msgPhoneAccepted = "✅ Номер получен: %s\n\n" +
		"Теперь придумайте пароль для входа на сайт.\n" +
		"Пароль должен содержать минимум %d символов."
	msgPasswordTooShort = "❌ Пароль слишком короткий. Минимум %d символов.\n" +
		"Попробуйте ещё раз:"
	msgCancelled = "❌ Регистрация отменена.\n" +
		"Напишите /start чтобы начать заново."

	msgSuccess = "🎉 Регистрация успешна!\n\n" +
		"📱 Ваш логин: %s\n" +
		"🔐 Пароль: тот, что вы только что ввели\n\n" +
		"Теперь вы можете войти на сайт roskarniz.ru"
	msgDuplicatePhone = "❌ Этот номер телефона уже зарегистрирован.\n" +
		"Используйте его для входа на сайт."
	msgDuplicateIdentity = "❌ Вы уже зарегистрированы с этого Telegram аккаунта."
	msgValidationOther   = "❌ Ошибка регистрации: %s"
	msgServerError       = "❌ Ошибка сервера: %d"
	msgTransportFailure  = "❌ Не удалось связаться с сервером. Попробуйте позже."
	msgRetryHint         = "\n\nНапишите /start чтобы попробовать снова."
)

// MaxDetailRunes caps the service error body quoted back to the user.
// Telegram rejects messages longer than 4096 characters.
const MaxDetailRunes = 1000


// OutcomeText renders the reply for a finished registration call.
func OutcomeText(out regapi.Outcome, phone string) string {
	switch out.Kind {
	case regapi.Success:
		return fmt.Sprintf(msgSuccess, phone)
	case regapi.DuplicatePhone:
		return msgDuplicatePhone
	case regapi.DuplicateIdentity:
		return msgDuplicateIdentity
	case regapi.ValidationOther:
		return fmt.Sprintf(msgValidationOther, clipRunes(out.Body, MaxDetailRunes)) + msgRetryHint
	case regapi.ServerError:
		return fmt.Sprintf(msgServerError, out.Status) + msgRetryHint
	default:
		return msgTransportFailure + msgRetryHint
	}
}

func clipRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
