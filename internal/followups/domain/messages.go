package domain

import (
	"hash/fnv"
	"strings"
)

const (
	clinicPhone    = "+994 12 541 19 00"
	clinicWhatsApp = "https://wa.me/994555512400"
)

var templates = map[Type][]string{
	Type24h: {
		"Salam! Mən VERA, dün bizimlə danışmışdınız. 👋\n\nBaşqa sualınız var? Müayinə üçün kömək edə bilərəm? 😊\n\n📞 " + clinicPhone,
		"Salam! VERA sizinlə əlaqə saxlayır. 🙂\n\nDünənki söhbətimizə davam edək? Göz sağlamlığınız üçün hər hansı kömək lazımdırsa, buradayıq!\n\n📞 " + clinicPhone,
		"Salam! Mən VERA, Briz-L köməkçisiyəm. 👋\n\nDünən bizimlə əlaqə saxlamışdınız. Suallarınıza cavab verə və ya müayinə təyin edə bilərik.\n\n📞 " + clinicPhone,
	},
	Type48h: {
		"Salam! Bir neçə gün əvvəl bizimlə danışmışdıq. 👋\n\nGözünüzlə bağlı probleminizlə həll tapdınız? Hələ də kömək lazımdırsa, burdayıq! 🙂\n\n📞 " + clinicPhone,
		"Salam! İki gün əvvəl məlumat almışdınız. 📝\n\nQərarınızı vermisinizsə və ya sualınız varsa, məmnuniyyətlə cavablandırırıq.\n\n📞 " + clinicPhone,
		"Salam! Göz sağlamlığınız barədə düşünmüsünüzmü? 🤔\n\nMüayinə üçün vaxt təyin etməyə kömək edə bilərik.\n\n📞 " + clinicPhone,
	},
	TypeWeek: {
		"Salam! Keçən həftə mənimlə yazışmışdınız. 👋\n\nGöz sağlamlığınız vacibdir. İndi müayinəyə yazıla bilərsiniz. Kömək edim? 📞\n\n☎️ " + clinicPhone + "\n📱 WhatsApp: " + clinicWhatsApp,
		"Salam! Bir həftə əvvəl bizimlə danışmışdınız. 📅\n\nGöz probleminiz hələ də qalırsa, müayinə vaxtıdır. Sizə kömək edək?\n\n📞 " + clinicPhone,
		"Salam! Keçən həftə göz sağlamlığı barədə məlumat almışdınız. 👓\n\nErkən müayinə hər zaman yaxşıdır. Vaxt təyin edək?\n\n📞 " + clinicPhone,
	},
}

// Message composes the nudge text for a candidate. The template is picked by
// user id so the same lead always sees the same wording for a step.
func Message(t Type, c Candidate) string {
	options, ok := templates[t]
	if !ok {
		options = templates[Type24h]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(c.UserID))
	msg := options[int(h.Sum32()%uint32(len(options)))]

	var b strings.Builder
	b.WriteString(msg)
	if len(c.Surgeries) > 0 {
		b.WriteString("\n\n💡 Xatırlatma: ")
		b.WriteString(titleCase(c.Surgeries[0]))
		b.WriteString(" haqqında danışmışdıq.")
	}
	if len(c.Symptoms) > 0 {
		b.WriteString("\n\n🩺 Simptomlarınız hələ də davam edirmi?")
	}
	return b.String()
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
