package applicant

import "fmt"

// Outbound SMS texts. The gateway delivers Nepali-script messages as-is.

func welcomeSMS(applicantID string) string {
	return fmt.Sprintf(`धन्यवाद!
तपाईंको तालिम आवेदन फारम सफलतापूर्वक दर्ता भएको छ। थप जानकारीको लागि तपाईंलाई पुन: म्यासेज आउनेछ।
आवेदक आइडी: %s
कृपया आफ्नो आवेदक आइडी सुरक्षित राख्नु होला।
सीप मेला २०८२,
का.म.पा.`, applicantID)
}

func selectionSMS(sector, applicantID, location, date, timeStr, loginURL, password string) string {
	return fmt.Sprintf(`बधाई छ!
तपाईं "%s" तालिमका लागि छनौट हुनुभएको छ। तालिममा सहभागीको लागि तल उल्लेखित स्थान र समयमा उपस्थित हुन अनुरोध गर्दछौं।
आवेदक आइडी: %s
स्थान: %s
मिति: %s
समय: %s
प्रणालीमा लगइन गर्नको लागि:
- वेबसाइट: %s/login
- युजरनेम: तपाईंले दर्ता गर्नुभएको फोन नम्बर
- पासवर्ड: %s
धन्यवाद,
सिप मेला २०८२
का.म.पा`, sector, applicantID, location, date, timeStr, loginURL, password)
}

func shortlistSMS(location, date, timeStr string) string {
	return fmt.Sprintf(`बधाई छ!
तपाईं सीपमेला २०८२ मा तालिमका लागि अन्तर्वार्ताको लागि छनौट हुनुभएको छ।
अन्तर्वार्ताको लागि तल उल्लेखित स्थान र समयमा उपस्थित हुन अनुरोध गर्दछौं।
स्थान: %s
मिति: %s
समय: %s
सीप मेला २०८२,
का.म.पा.`, location, date, timeStr)
}

func assignmentSMS(sector, applicantID, location, date, timeStr, loginURL string) string {
	return fmt.Sprintf(`बधाई छ!
तपाईं "%s" तालिम कक्षा सहभागी हुनका लागि छनौट हुनुभएको छ। कृपया तल उल्लेखित स्थान र समयमा उपस्थित हुनुहोस्।
स्थान: %s
मिति: %s
समय: %s
वेबसाइट: %s/login
आवेदक आइडी: %s
धन्यवाद,
सिप मेला २०८२
का.म.पा`, sector, location, date, timeStr, loginURL, applicantID)
}

func passwordChangedSMS(newPassword string) string {
	return fmt.Sprintf(`धन्यवाद!
तपाईंको पासवर्ड सफलतापूर्वक परिवर्तन गरिएको छ।
नयाँ पासवर्ड: %s
यदि तपाईंले पासवर्ड परिवर्तनको अनुरोध गर्नुभएको होइन भने, कृपया तुरुन्तै सहायता केन्द्र (Support) लाई सम्पर्क गर्नुहोस्।
सीप मेला २०८२,
का.म.पा.`, newPassword)
}

// Email template data

type welcomeEmailData struct {
	FullName    string
	ApplicantID string
}

type scheduleEmailData struct {
	FullName    string
	ApplicantID string
	Sector      string
	Location    string
	Date        string
	Time        string
	Password    string
}
