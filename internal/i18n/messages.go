package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// gate.attempts takes preformatted counts so digits stay Latin in every
// locale.
func init() {
	ar := language.Arabic
	message.SetString(ar, "page.title", "الفيديوهات")
	message.SetString(ar, "gate.heading", "أدخل رمز الدخول")
	message.SetString(ar, "gate.placeholder", "الرمز")
	message.SetString(ar, "gate.submit", "دخول")
	message.SetString(ar, "gate.enter_code", "ادخل الرمز")
	message.SetString(ar, "gate.incorrect_code", "الرمز غير صحيح")
	message.SetString(ar, "gate.internal_error", "حدث خطأ داخلي")
	message.SetString(ar, "gate.busy", "جارٍ التحقق من الرمز")
	message.SetString(ar, "gate.network_error", "تعذر الاتصال، حاول مرة أخرى")
	message.SetString(ar, "gate.library_error", "خطأ في تحميل قائمة الفيديوهات.")
	message.SetString(ar, "gate.attempts", "تمت المحاولات: %s / %s")
	message.SetString(ar, "card.play", "تشغيل")
	message.SetString(ar, "player.back", "رجوع")
	message.SetString(ar, "lockout.heading", "تم تجاوز عدد المحاولات")
	message.SetString(ar, "lockout.body", "أغلق المتصفح ثم حاول مرة أخرى لاحقًا.")

	en := language.English
	message.SetString(en, "page.title", "Videos")
	message.SetString(en, "gate.heading", "Enter access code")
	message.SetString(en, "gate.placeholder", "Code")
	message.SetString(en, "gate.submit", "Enter")
	message.SetString(en, "gate.enter_code", "Enter the code")
	message.SetString(en, "gate.incorrect_code", "Incorrect code")
	message.SetString(en, "gate.internal_error", "An internal error occurred")
	message.SetString(en, "gate.busy", "Checking the code")
	message.SetString(en, "gate.network_error", "Connection failed, try again")
	message.SetString(en, "gate.library_error", "Failed to load the video list.")
	message.SetString(en, "gate.attempts", "Attempts: %s / %s")
	message.SetString(en, "card.play", "Play")
	message.SetString(en, "player.back", "Back")
	message.SetString(en, "lockout.heading", "Too many attempts")
	message.SetString(en, "lockout.body", "Close the browser and try again later.")
}
