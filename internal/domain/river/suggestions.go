package river

import (
	"fmt"

	"katha/internal/domain/story"
)

var suggestionTemplates = map[story.Language][]string{
	story.English: {
		"Tell me another legend about %s",
		"What are the famous spiritual sites along %s?",
		"How was %s born? Tell the origin story",
		"Describe the biodiversity and nature of %s",
		"What festivals are celebrated at %s?",
	},
	story.Hindi: {
		"%s से जुड़ी कोई और कहानी सुनाएं",
		"%s के किनारे स्थित प्रमुख तीर्थ स्थल कौन से हैं?",
		"%s का उद्गम कहाँ से हुआ?",
		"%s की जैव विविधता के बारे में बताएं",
		"%s पर कौन से प्रमुख त्यौहार मनाए जाते हैं?",
	},
	story.Marathi: {
		"%s शी संबंधित दुसरी कथा सांगा",
		"%s च्या काठावरील प्रमुख तीर्थक्षेत्रे कोणती?",
		"%s चा उगम कोठून झाला?",
		"%s मधील जैवविविधतेबद्दल सांगा",
		"%s वर कोणते सण साजरे केले जातात?",
	},
	story.Kannada: {
		"%s ನದಿಗೆ ಸಂಬಂಧಿಸಿದ ಮತ್ತೊಂದು ಕಥೆಯನ್ನು ಹೇಳಿ",
		"%s ನದಿಯ ದಡದಲ್ಲಿರುವ ಪ್ರಮುಖ ದೇವಾಲಯಗಳು ಯಾವುವು?",
		"%s ನದಿಯ ಉಗಮ ಸ್ಥಾನ ಯಾವುದು?",
		"%s ನದಿಯ ಜೈವಿಕ ವೈವಿಧ್ಯತೆಯ ಬಗ್ಗೆ ತಿಳಿಸಿ",
		"%s ನದಿಗೆ ಸಂಬಂಧಿಸಿದ ಪ್ರಮುಖ ಹಬ್ಬಗಳು ಯಾವುವು?",
	},
	story.Tamil: {
		"%s நதி பற்றிய மற்றொரு கதையைச் சொல்லுங்கள்",
		"%s நதிக்கரையில் உள்ள முக்கியமான கோயில்கள் எவை?",
		"%s நதி எங்கே உற்பத்தியாகிறது?",
		"%s நதியின் பல்லுயிர் வளம் பற்றி கூறுங்கள்",
		"%s நதிக்கரையில் கொண்டாடப்படும் முக்கிய விழாக்கள் எவை?",
	},
	story.Malayalam: {
		"%s നദിയെക്കുറിച്ചുള്ള മറ്റൊരു കഥ പറയൂ",
		"%s നദീതീരത്തുള്ള പ്രധാന ക്ഷേത്രങ്ങൾ ഏവ?",
		"%s നദിയുടെ ഉത്ഭവം എവിടെയാണ്?",
		"%s നദിയുടെ ജൈവവൈവിധ്യത്തെക്കുറിച്ച് പറയൂ",
		"%s നദിയുമായി ബന്ധപ്പെട്ട പ്രധാന ഉത്സവങ്ങൾ ഏവ?",
	},
}

// Suggestions returns follow-up questions about the river in the given language.
func Suggestions(r River, lang story.Language) []string {
	templates, ok := suggestionTemplates[lang]
	if !ok {
		templates = suggestionTemplates[story.English]
	}
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, fmt.Sprintf(t, r.Name))
	}
	return out
}
