package naming

import "fmt"

// Naming functions for WebPage secondaries.

func ConfigMap(page string) string {
	return fmt.Sprintf("%s-html", page)
}

func Deployment(page string) string {
	return page
}

func Service(page string) string {
	return page
}
