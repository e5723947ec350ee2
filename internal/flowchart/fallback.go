package flowchart

import "strings"

const classificationDiagram = `flowchart TD
    A((Start Classification)) --> B[Main Category]
    B --> C{Type A?}
    B --> D{Type B?}
    B --> E{Type C?}
    C -->|Yes| F[Subcategory A1]
    C -->|No| G[Subcategory A2]
    D -->|Yes| H[Subcategory B1]
    D -->|No| I[Subcategory B2]
    E -->|Yes| J[Subcategory C1]
    E -->|No| K[Subcategory C2]
    F --> L((Classification Complete))
    G --> L
    H --> L
    I --> L
    J --> L
    K --> L`

const processDiagram = `flowchart TD
    A((Start Process)) --> B[Identify Requirements]
    B --> C[Plan Approach]
    C --> D{Resources Available?}
    D -->|Yes| E[Execute Plan]
    D -->|No| F[Acquire Resources]
    F --> E
    E --> G{Quality Check}
    G -->|Pass| H[Complete Process]
    G -->|Fail| I[Review & Improve]
    I --> C
    H --> J((End))`

const genericDiagram = `flowchart TD
    A((Start)) --> B[Understand Topic]
    B --> C[Gather Information]
    C --> D[Analyze Data]
    D --> E{Need More Info?}
    E -->|Yes| C
    E -->|No| F[Draw Conclusions]
    F --> G[Take Action]
    G --> H((Complete))`

const classificationText = `                    [Main Topic]
                         |
            +------------+------------+
            |            |            |
      [Category A]  [Category B]  [Category C]
           |            |            |
    +------+------+     |      +-----+-----+
    |      |      |     |      |     |     |
[Sub A1][Sub A2][Sub A3] [Sub B1] [Sub C1][Sub C2]
    |      |      |     |      |     |     |
[Ex A1][Ex A2][Ex A3] [Ex B1] [Ex C1][Ex C2]`

const processText = `        ((Start))
            |
            v
    [Identify Requirements]
            |
            v
      [Plan Approach]
            |
            v
     {Resources Available?}
           / \
      Yes /   \ No
         /     \
        v       v
[Execute Plan] [Acquire Resources]
        |           |
        |           v
        |    [Execute Plan]
        |           |
        v           v
     {Quality Check}
           / \
     Pass /   \ Fail
         /     \
        v       v
  [Complete] [Review & Improve]
        |           |
        v           v
    ((End))    [Plan Approach]`

// FallbackDiagram picks a fixed Mermaid diagram for the request:
// classification, process (the request mentions a process, workflow or
// how-to) or a generic study flow. Every fallback passes Validate.
func FallbackDiagram(prompt string) string {
	if Classify(prompt).Kind == KindClassification {
		return classificationDiagram
	}
	lower := strings.ToLower(prompt)
	if containsAny(lower, []string{"process", "workflow", "how"}) {
		return processDiagram
	}
	return genericDiagram
}

// FallbackText returns the fixed ASCII chart for a diagram kind.
func FallbackText(k Kind) string {
	if k == KindClassification {
		return classificationText
	}
	return processText
}
