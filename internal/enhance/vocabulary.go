package enhance

import "strings"

// medicalVocabulary is the fixed local term list behind the
// analysis.has_medical_terms flag. Matching is a local scan, never a vendor
// call. Includes common clinical shorthand as dictated (Pt, c/o, SOB, Hx).
var medicalVocabulary = map[string]struct{}{
	// shorthand
	"pt":   {},
	"pts":  {},
	"c/o":  {},
	"s/p":  {},
	"r/o":  {},
	"sob":  {},
	"bp":   {},
	"hr":   {},
	"rr":   {},
	"hx":   {},
	"dx":   {},
	"rx":   {},
	"tx":   {},
	"fx":   {},
	"prn":  {},
	"bid":  {},
	"tid":  {},
	"qid":  {},
	"npo":  {},
	"stat": {},
	"wnl":  {},
	"nkda": {},
	"copd": {},
	"chf":  {},
	"mi":   {},
	"cva":  {},
	"uti":  {},
	"dvt":  {},
	"gi":   {},
	"iv":   {},
	"im":   {},
	"ekg":  {},
	"ecg":  {},
	"cbc":  {},
	"bmp":  {},
	"a1c":  {},

	// terms
	"patient":       {},
	"diagnosis":     {},
	"prognosis":     {},
	"symptom":       {},
	"symptoms":      {},
	"hypertension":  {},
	"hypotension":   {},
	"diabetes":      {},
	"tachycardia":   {},
	"bradycardia":   {},
	"dyspnea":       {},
	"edema":         {},
	"syncope":       {},
	"anemia":        {},
	"sepsis":        {},
	"pneumonia":     {},
	"asthma":        {},
	"fracture":      {},
	"lesion":        {},
	"biopsy":        {},
	"malignant":     {},
	"benign":        {},
	"acute":         {},
	"chronic":       {},
	"bilateral":     {},
	"abdominal":     {},
	"cardiac":       {},
	"pulmonary":     {},
	"renal":         {},
	"hepatic":       {},
	"neurological":  {},
	"prescription":  {},
	"medication":    {},
	"dosage":        {},
	"mg":            {},
	"ml":            {},
	"anesthesia":    {},
	"intubation":    {},
	"catheter":      {},
	"suture":        {},
	"triage":        {},
	"palpation":     {},
	"auscultation":  {},
	"tenderness":    {},
	"inflammation":  {},
	"infection":     {},
	"allergy":       {},
	"allergies":     {},
	"vitals":        {},
	"systolic":      {},
	"diastolic":     {},
	"oximetry":      {},
	"saturation":    {},
	"glucose":       {},
	"cholesterol":   {},
	"hemoglobin":    {},
	"creatinine":    {},
	"electrolytes":  {},
	"contusion":     {},
	"laceration":    {},
	"hematoma":      {},
	"ischemia":      {},
	"embolism":      {},
	"thrombosis":    {},
	"arrhythmia":    {},
	"stenosis":      {},
	"neuropathy":    {},
	"osteoporosis":  {},
	"arthritis":     {},
	"dementia":      {},
	"migraine":      {},
	"seizure":       {},
	"vertigo":       {},
	"nausea":        {},
	"vomiting":      {},
	"diarrhea":      {},
	"constipation":  {},
	"fever":         {},
	"febrile":       {},
	"afebrile":      {},
	"ambulatory":    {},
	"discharge":     {},
	"admission":     {},
	"referral":      {},
	"consult":       {},
	"radiology":     {},
	"ultrasound":    {},
	"mri":           {},
	"ct":            {},
	"x-ray":         {},
	"immunization":  {},
	"vaccination":   {},
	"antibiotic":    {},
	"antibiotics":   {},
	"analgesic":     {},
	"insulin":       {},
	"metformin":     {},
	"lisinopril":    {},
	"atorvastatin":  {},
	"amoxicillin":   {},
	"ibuprofen":     {},
	"acetaminophen": {},
	"warfarin":      {},
	"heparin":       {},
}

// ContainsMedicalTerms reports whether the text contains at least one term
// from the fixed vocabulary. Tokens are compared lowercased with leading and
// trailing punctuation stripped; inner slashes survive so shorthand like
// "c/o" matches.
func ContainsMedicalTerms(text string) bool {
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,;:!?()[]{}\"'")
		if token == "" {
			continue
		}
		if _, ok := medicalVocabulary[token]; ok {
			return true
		}
	}
	return false
}
