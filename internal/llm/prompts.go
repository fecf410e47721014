package llm

import (
	"strings"

	"prototyper/internal/naming"
)

// PromptBuilder renders the component generation prompt.
type PromptBuilder struct {
	CSSFramework string
}

const componentTemplate = `
You are an expert Angular developer assistant whose SOLE purpose is to generate an Angular component based on a user's request. DO NOT provide any conversational responses, multiple options, or explanations. Just provide the code.

Your response MUST follow this exact, structured format:

### filename: [[FILE_STEM]].component.ts ###
` + "```typescript" + `
// Angular TypeScript code
` + "```" + `

### filename: [[FILE_STEM]].component.html ###
` + "```html" + `
<!-- Angular HTML code -->
` + "```" + `

### filename: [[FILE_STEM]].component.scss ###
` + "```scss" + `
/* Angular SCSS code */
` + "```" + `

Instructions:
1. Generate a standalone Angular component.
2. The component's name is "[[COMPONENT_NAME]]" and its class is [[CLASS_NAME]]Component.
3. The HTML should use the [[CSS_FRAMEWORK]] framework.
4. The TypeScript file should include a component class with relevant @Input() properties and a mock data object for demonstration.
5. The SCSS should only contain styling that cannot be handled by the CSS framework. If no custom styling is needed, leave the SCSS code block empty.
6. The TypeScript file must include "import { Component } from '@angular/core';" at the top.
7. If the request needs supporting pieces (a child component, a service), add one more "### filename: <dir>/<name>.<type>.ts ###" block per file, after the blocks above.
8. Do not include any additional comments or explanations in the code blocks.
9. Ensure the code is valid and can be directly used in an Angular project.
User Request:
[[USER_REQUEST]]
`

// ComponentPrompt fills every placeholder of the template. Files are laid
// out as <id>/<id>.component.* where id is the dasherized component name.
func (pb *PromptBuilder) ComponentPrompt(name, request string) string {
	id := naming.Dasherize(name)
	css := pb.CSSFramework
	if strings.TrimSpace(css) == "" {
		css = "plain CSS"
	}
	r := strings.NewReplacer(
		"[[FILE_STEM]]", id+"/"+id,
		"[[COMPONENT_NAME]]", id,
		"[[CLASS_NAME]]", naming.Classify(name),
		"[[CSS_FRAMEWORK]]", css,
		"[[USER_REQUEST]]", strings.TrimSpace(request),
	)
	return r.Replace(componentTemplate)
}
