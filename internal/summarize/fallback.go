package summarize

import (
	"github.com/TobiSchelling/studydeck/internal/models"
	"github.com/TobiSchelling/studydeck/internal/tier"
)

type template struct {
	summary    string
	highlights []string
	topics     []string
}

var conciseTemplate = template{
	summary: "This document provides essential information on the subject matter. " +
		"It covers fundamental concepts with clear explanations. " +
		"The content is structured to facilitate quick understanding and practical application.",
	highlights: []string{
		"Core concepts clearly explained",
		"Practical applications provided",
		"Essential information covered",
	},
	topics: []string{
		"Fundamental Concepts",
		"Key Principles",
		"Practical Applications",
	},
}

var moderateTemplate = template{
	summary: "This document offers comprehensive coverage of the subject matter with detailed explanations of core concepts. " +
		"It includes theoretical foundations and practical applications to enhance understanding. " +
		"The material is well-structured with clear examples and case studies. " +
		"Key methodologies and best practices are thoroughly discussed. " +
		"The content provides valuable insights for both beginners and advanced learners.",
	highlights: []string{
		"Comprehensive coverage of core concepts and principles",
		"Detailed theoretical foundations with practical applications",
		"Well-structured content with clear examples and case studies",
		"Key methodologies and best practices thoroughly explained",
		"Valuable insights for learners at different levels",
	},
	topics: []string{
		"Theoretical Framework",
		"Practical Applications",
		"Case Studies",
		"Best Practices",
	},
}

var comprehensiveTemplate = template{
	summary: "This comprehensive document provides extensive coverage of the subject matter with in-depth analysis of core concepts and principles. " +
		"It begins with fundamental theoretical foundations and progressively builds to advanced topics and specialized applications. " +
		"The material includes detailed explanations, numerous examples, and comprehensive case studies that illustrate real-world implementations. " +
		"Key methodologies, best practices, and industry standards are thoroughly examined throughout multiple sections. " +
		"The document offers valuable insights for practitioners, researchers, and students at various levels of expertise. " +
		"Advanced topics are explored with careful attention to current trends and future developments in the field. " +
		"The content is meticulously organized to facilitate both sequential reading and selective reference use. " +
		"Practical guidelines and actionable recommendations are provided to support immediate application of the concepts. " +
		"The document serves as both an educational resource and a professional reference guide. " +
		"Critical analysis and comparative studies enhance the depth of understanding across different approaches and methodologies. " +
		"Contemporary challenges and emerging solutions are addressed with forward-looking perspectives. " +
		"The comprehensive nature of this document makes it an essential resource for anyone seeking thorough understanding of the subject matter. " +
		"Integration of theory and practice is emphasized throughout to ensure practical relevance and applicability. " +
		"The document concludes with synthesis of key learnings and recommendations for further exploration.",
	highlights: []string{
		"Extensive coverage with in-depth analysis of core concepts and advanced principles",
		"Progressive structure from fundamental foundations to specialized applications",
		"Comprehensive case studies illustrating real-world implementations and best practices",
		"Thorough examination of methodologies, industry standards, and current trends",
		"Valuable insights for practitioners, researchers, and students at all expertise levels",
		"Advanced topics explored with attention to future developments and emerging solutions",
		"Meticulously organized for both sequential reading and selective reference use",
		"Practical guidelines and actionable recommendations for immediate application",
		"Critical analysis and comparative studies across different approaches and methodologies",
		"Integration of theory and practice emphasized throughout for practical relevance",
	},
	topics: []string{
		"Theoretical Foundations",
		"Advanced Applications",
		"Industry Standards",
		"Best Practices",
		"Case Studies",
		"Emerging Trends",
		"Practical Guidelines",
		"Comparative Analysis",
	},
}

func fallbackFor(t tier.Tier) template {
	switch {
	case t.MaxPages == 0:
		return comprehensiveTemplate
	case t.MaxPages <= 1:
		return conciseTemplate
	default:
		return moderateTemplate
	}
}

// Fallback synthesizes a summary from the canned template for the tier.
func Fallback(content, name string, t tier.Tier) models.DocumentSummary {
	tpl := fallbackFor(t)
	return models.DocumentSummary{
		Title:             TitleFromFileName(name),
		Summary:           tpl.summary,
		Highlights:        append([]string(nil), tpl.highlights...),
		KeyTopics:         append([]string(nil), tpl.topics...),
		EstimatedReadTime: tier.ReadTime(content),
		Source:            models.SourceFallback,
	}
}
