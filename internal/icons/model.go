package icons

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Model associates an icon with the file names it decorates.
type Model struct {
	ID         string   `yaml:"id" json:"id"`
	Icon       string   `yaml:"icon" json:"icon"`
	Names      []string `yaml:"names,omitempty" json:"names,omitempty"`
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	Patterns   []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`
}

// Check reports whether the lower-cased fileName is decorated by m.
func (m Model) Check(fileName string) bool {
	for _, name := range m.Names {
		if fileName == name {
			return true
		}
	}
	for _, ext := range m.Extensions {
		if strings.HasSuffix(fileName, "."+ext) {
			return true
		}
	}
	for _, pattern := range m.Patterns {
		if ok, _ := doublestar.Match(pattern, fileName); ok {
			return true
		}
	}
	return false
}

// Validate checks that the model can match something and that its patterns compile.
func (m Model) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("model has no id")
	}
	if m.Icon == "" {
		return fmt.Errorf("model %s has no icon", m.ID)
	}
	if len(m.Names)+len(m.Extensions)+len(m.Patterns) == 0 {
		return fmt.Errorf("model %s matches nothing", m.ID)
	}
	for _, pattern := range m.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("model %s: invalid pattern %q", m.ID, pattern)
		}
	}
	return nil
}

// baseName lower-cases the last element of a slash or backslash separated path.
func baseName(file string) string {
	file = strings.ReplaceAll(file, "\\", "/")
	return strings.ToLower(path.Base(file))
}

// DefaultModels is the built-in model set.
var DefaultModels = []Model{
	{ID: "readme", Icon: "/extra-icons/readme.svg", Names: []string{"readme", "readme.md", "readme.txt", "readme.adoc"}},
	{ID: "license", Icon: "/extra-icons/license.svg", Names: []string{"license", "license.md", "license.txt", "copying"}},
	{ID: "changelog", Icon: "/extra-icons/changelog.svg", Names: []string{"changelog", "changelog.md", "changes.md"}},
	{ID: "dockerfile", Icon: "/extra-icons/docker.svg", Names: []string{"dockerfile", ".dockerignore"}, Patterns: []string{"dockerfile.*", "*.dockerfile"}},
	{ID: "docker_compose", Icon: "/extra-icons/docker-compose.svg", Patterns: []string{"docker-compose*.{yml,yaml}", "compose.{yml,yaml}"}},
	{ID: "gitignore", Icon: "/extra-icons/git.svg", Names: []string{".gitignore", ".gitattributes", ".gitmodules", ".gitkeep"}},
	{ID: "makefile", Icon: "/extra-icons/makefile.svg", Names: []string{"makefile", "gnumakefile"}, Extensions: []string{"mk"}},
	{ID: "gomod", Icon: "/extra-icons/gomod.svg", Names: []string{"go.mod", "go.sum", "go.work"}},
	{ID: "editorconfig", Icon: "/extra-icons/editorconfig.svg", Names: []string{".editorconfig"}},
	{ID: "codeowners", Icon: "/extra-icons/github.svg", Names: []string{"codeowners"}},
	{ID: "jenkins", Icon: "/extra-icons/jenkins.svg", Names: []string{"jenkinsfile"}, Extensions: []string{"jenkinsfile"}},
	{ID: "npm", Icon: "/extra-icons/npm.svg", Names: []string{"package.json", "package-lock.json", ".npmrc"}},
	{ID: "yarn", Icon: "/extra-icons/yarn.svg", Names: []string{"yarn.lock", ".yarnrc", ".yarnrc.yml"}},
	{ID: "env", Icon: "/extra-icons/dotenv.svg", Names: []string{".env"}, Patterns: []string{".env.*"}},
	{ID: "terraform", Icon: "/extra-icons/terraform.svg", Extensions: []string{"tf", "tfvars"}},
}
