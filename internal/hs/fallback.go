package hs

import (
	"fmt"
	"strings"

	"github.com/seanmking/tradewizard-core/internal/model"
)

// maxFallbackConfidence caps every fallback candidate's confidence well below
// the auto-advance threshold so mock data can never be mistaken for a strong
// provider match.
const maxFallbackConfidence = 0.45

// codeDescriptions is the built-in deterministic reference table keyed by
// chapter, heading and subheading code.
var codeDescriptions = map[string]string{
	"08": "Edible fruit and nuts; peel of citrus fruit or melons",
	"09": "Coffee, tea, mate and spices",
	"18": "Cocoa and cocoa preparations",
	"20": "Preparations of vegetables, fruit or nuts",
	"22": "Beverages, spirits and vinegar",
	"30": "Pharmaceutical products",
	"39": "Plastics and articles thereof",
	"42": "Articles of leather; travel goods, handbags",
	"52": "Cotton",
	"61": "Articles of apparel and clothing accessories, knitted or crocheted",
	"62": "Articles of apparel and clothing accessories, not knitted or crocheted",
	"64": "Footwear, gaiters and the like",
	"71": "Natural or cultured pearls, precious stones, jewellery",
	"84": "Nuclear reactors, boilers, machinery and mechanical appliances",
	"85": "Electrical machinery and equipment and parts thereof",
	"87": "Vehicles other than railway or tramway rolling stock",
	"90": "Optical, photographic, measuring and medical instruments",
	"94": "Furniture; bedding, mattresses, lamps and lighting fittings",

	"0901": "Coffee, whether or not roasted or decaffeinated",
	"0902": "Tea, whether or not flavoured",
	"1806": "Chocolate and other food preparations containing cocoa",
	"2204": "Wine of fresh grapes, including fortified wines",
	"2208": "Spirits, liqueurs and other spirituous beverages",
	"3004": "Medicaments in measured doses for retail sale",
	"3926": "Other articles of plastics",
	"6109": "T-shirts, singlets and other vests, knitted or crocheted",
	"6403": "Footwear with outer soles of rubber or leather",
	"7113": "Articles of jewellery and parts thereof",
	"8471": "Automatic data processing machines and units thereof",
	"8501": "Electric motors and generators",
	"8517": "Telephone sets, including smartphones; other apparatus for transmission of voice or data",
	"8528": "Monitors and projectors; reception apparatus for television",
	"8544": "Insulated wire, cable and other insulated electric conductors",
	"8703": "Motor cars and other motor vehicles for transport of persons",
	"9401": "Seats, whether or not convertible into beds, and parts thereof",

	"090111": "Coffee, not roasted, not decaffeinated",
	"090121": "Coffee, roasted, not decaffeinated",
	"090210": "Green tea in immediate packings not exceeding 3 kg",
	"180631": "Chocolate in blocks, slabs or bars, filled",
	"220421": "Wine in containers holding 2 litres or less",
	"300490": "Other medicaments, packaged for retail sale",
	"392690": "Other articles of plastics, not elsewhere specified",
	"610910": "T-shirts, singlets and other vests of cotton, knitted",
	"640399": "Footwear with outer soles of rubber or plastics, other",
	"711319": "Jewellery of precious metal other than silver",
	"847130": "Portable automatic data processing machines, weighing not more than 10 kg",
	"851711": "Line telephone sets with cordless handsets",
	"851712": "Smartphones for cellular or other wireless networks",
	"851718": "Other telephone sets and apparatus",
	"851762": "Machines for the reception, conversion and transmission of voice or data",
	"870323": "Motor cars with engine capacity between 1500 and 3000 cc",
	"940161": "Upholstered seats with wooden frames",
}

// codeChildren lists the curated next-level codes for parents the table knows.
var codeChildren = map[string][]string{
	"09":   {"0901", "0902"},
	"18":   {"1806"},
	"22":   {"2204", "2208"},
	"30":   {"3004"},
	"39":   {"3926"},
	"61":   {"6109"},
	"64":   {"6403"},
	"71":   {"7113"},
	"84":   {"8471"},
	"85":   {"8501", "8517", "8528", "8544"},
	"87":   {"8703"},
	"94":   {"9401"},
	"0901": {"090111", "090121"},
	"0902": {"090210"},
	"1806": {"180631"},
	"2204": {"220421"},
	"3004": {"300490"},
	"3926": {"392690"},
	"6109": {"610910"},
	"6403": {"640399"},
	"7113": {"711319"},
	"8471": {"847130"},
	"8517": {"851711", "851712", "851718", "851762"},
	"8703": {"870323"},
	"9401": {"940161"},
}

// keywordRule maps description terms to a best-guess subheading.
type keywordRule struct {
	code     string
	keywords []string
}

// keywordRules drive the deterministic classify fallback. First match wins;
// order goes from specific to generic terms.
var keywordRules = []keywordRule{
	{code: "851712", keywords: []string{"smartphone", "mobile phone", "cell phone", "iphone", "android phone"}},
	{code: "847130", keywords: []string{"laptop", "notebook computer", "macbook", "computer"}},
	{code: "090111", keywords: []string{"green coffee", "coffee bean"}},
	{code: "090121", keywords: []string{"roasted coffee", "coffee"}},
	{code: "090210", keywords: []string{"green tea", "tea"}},
	{code: "180631", keywords: []string{"chocolate", "cocoa bar"}},
	{code: "220421", keywords: []string{"wine"}},
	{code: "300490", keywords: []string{"medicine", "medicament", "pharmaceutical"}},
	{code: "610910", keywords: []string{"t-shirt", "tshirt", "tee shirt", "vest"}},
	{code: "640399", keywords: []string{"shoe", "sneaker", "footwear", "boot"}},
	{code: "711319", keywords: []string{"jewellery", "jewelry", "necklace", "ring"}},
	{code: "851762", keywords: []string{"router", "modem", "network switch"}},
	{code: "854449", keywords: []string{"cable", "wire", "conductor"}},
	{code: "870323", keywords: []string{"car", "sedan", "vehicle"}},
	{code: "940161", keywords: []string{"chair", "armchair", "sofa", "furniture"}},
}

// lastResortCode is the catch-all when no keyword rule matches. 3926.90 is
// the customary "other articles not elsewhere specified" bucket.
const lastResortCode = "392690"

// placeholderCount is how many numbered placeholder children are synthesized
// for codes the table does not know.
const placeholderCount = 3

// fallbackClassify returns exactly one deterministic candidate for a
// description, at the given confidence.
func fallbackClassify(description string, confidence float64) model.Candidates {
	desc := strings.ToLower(description)

	code := lastResortCode
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(desc, kw) {
				code = rule.code
				break
			}
		}
		if code != lastResortCode {
			break
		}
	}

	return model.Candidates{{
		Code:        code,
		Description: describeCode(code),
		Confidence:  capFallbackConfidence(confidence),
		Source:      model.SourceFallback,
	}}
}

// fallbackChildren returns the next-level options under a parent code. When
// the table has no entry, numbered placeholders are synthesized so the
// hierarchy never presents an empty level.
func fallbackChildren(parentCode string, confidence float64) model.Candidates {
	confidence = capFallbackConfidence(confidence)

	codes, ok := codeChildren[parentCode]
	if !ok {
		return synthesizeChildren(parentCode, confidence)
	}

	out := make(model.Candidates, 0, len(codes))
	for _, code := range codes {
		out = append(out, model.ClassificationCandidate{
			Code:        code,
			Description: describeCode(code),
			Confidence:  confidence,
			Source:      model.SourceFallback,
		})
	}
	return out
}

// synthesizeChildren fabricates numbered placeholder entries under a parent.
func synthesizeChildren(parentCode string, confidence float64) model.Candidates {
	out := make(model.Candidates, 0, placeholderCount)
	for i := 1; i <= placeholderCount; i++ {
		code := fmt.Sprintf("%s%02d", parentCode, i)
		out = append(out, model.ClassificationCandidate{
			Code:        code,
			Description: fmt.Sprintf("General category %d under %s", i, describeCode(parentCode)),
			Confidence:  confidence,
			Source:      model.SourceFallback,
		})
	}
	return out
}

// fallbackExamples derives illustrative products for a code from the table.
func fallbackExamples(code string) []model.ProductExample {
	children, ok := codeChildren[code]
	if !ok {
		return []model.ProductExample{{
			Code:        code,
			Name:        describeCode(code),
			Description: fmt.Sprintf("Typical products classified under %s", code),
		}}
	}

	out := make([]model.ProductExample, 0, len(children))
	for _, child := range children {
		out = append(out, model.ProductExample{
			Code:        child,
			Name:        describeCode(child),
			Description: fmt.Sprintf("Products classified under %s", child),
		})
	}
	return out
}

// describeCode returns the table description for a code, or a generic label
// for codes the table does not know.
func describeCode(code string) string {
	if desc, ok := codeDescriptions[code]; ok {
		return desc
	}
	level, err := model.LevelForCode(code)
	if err != nil {
		return fmt.Sprintf("HS code %s", code)
	}
	return fmt.Sprintf("%s %s", strings.ToUpper(level.String()[:1])+level.String()[1:], code)
}

// capFallbackConfidence clamps a confidence into the fallback band.
func capFallbackConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxFallbackConfidence {
		return maxFallbackConfidence
	}
	return v
}
