package email

type Template string

const (
	TemplateTreeIntegrity Template = "tree_integrity"
)

func (t Template) file() string {
	return string(t) + ".html"
}
