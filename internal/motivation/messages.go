package motivation

import "strings"

var fallbackMessages = map[Language]string{
	English:   "Remember: Every hour of smart work brings you closer to your Porsche 911 GT3 RS. Stay focused! 🚗",
	Dutch:     "Onthoud: elk uur slim werk brengt je dichter bij je Porsche 911 GT3 RS. Blijf gefocust! 🚗",
	Ukrainian: "Пам'ятайте: кожна година розумної роботи наближає вас до вашої Porsche 911 GT3 RS. Залишайтеся зосередженими! 🚗",
}

// FallbackMessage is sent when generation fails
func FallbackMessage(lang Language) string {
	if msg, ok := fallbackMessages[lang]; ok {
		return msg
	}
	return fallbackMessages[English]
}

var languageNames = map[Language]string{
	English:   "English",
	Dutch:     "Dutch",
	Ukrainian: "Ukrainian",
}

var languageFlags = map[Language]string{
	English:   "🇬🇧",
	Dutch:     "🇳🇱",
	Ukrainian: "🇺🇦",
}

// LanguageName returns the English name of a language
func LanguageName(lang Language) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	return strings.ToUpper(string(lang))
}

// LanguageButton is the menu label of a language
func LanguageButton(lang Language) string {
	return languageFlags[lang] + " " + LanguageName(lang)
}

var frequencyLabels = map[Frequency]map[Language]string{
	TwiceADay:    {English: "twice a day", Dutch: "twee keer per dag", Ukrainian: "двічі на день"},
	OnceADay:     {English: "once a day", Dutch: "één keer per dag", Ukrainian: "раз на день"},
	EveryTwoDays: {English: "once per 2 days", Dutch: "één keer per 2 dagen", Ukrainian: "раз на два дні"},
	OnceAWeek:    {English: "once per week", Dutch: "één keer per week", Ukrainian: "раз на тиждень"},
}

// FrequencyLabel describes a frequency in the given language
func FrequencyLabel(freq Frequency, lang Language) string {
	labels, ok := frequencyLabels[freq]
	if !ok {
		return string(freq)
	}
	if label, ok := labels[lang]; ok {
		return label
	}
	return labels[English]
}

// FrequencyButton is the menu label of a frequency
func FrequencyButton(freq Frequency) string {
	label := FrequencyLabel(freq, English)
	return strings.ToUpper(label[:1]) + label[1:]
}
