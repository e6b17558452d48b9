package testing

import (
	"maps"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"

	webpagev1alpha1 "github.com/imamik/webpage-operator/api/v1alpha1"
)

// WebPageBuilder provides a fluent interface for constructing test primaries.
// Each method returns a new builder (immutable) for chaining.
type WebPageBuilder struct {
	page webpagev1alpha1.WebPage
}

// NewWebPageBuilder creates a new WebPageBuilder with sensible defaults.
func NewWebPageBuilder(name, namespace string) *WebPageBuilder {
	return &WebPageBuilder{
		page: webpagev1alpha1.WebPage{
			ObjectMeta: metav1.ObjectMeta{
				Name:       name,
				Namespace:  namespace,
				Generation: 1,
			},
			Spec: webpagev1alpha1.WebPageSpec{
				HTML: "<h1>hello</h1>",
			},
		},
	}
}

// WithHTML sets the page content.
func (b *WebPageBuilder) WithHTML(html string) *WebPageBuilder {
	newBuilder := b.clone()
	newBuilder.page.Spec.HTML = html
	return newBuilder
}

// WithLabels merges labels into the page metadata.
func (b *WebPageBuilder) WithLabels(labels map[string]string) *WebPageBuilder {
	newBuilder := b.clone()
	if newBuilder.page.Labels == nil {
		newBuilder.page.Labels = make(map[string]string, len(labels))
	}
	maps.Copy(newBuilder.page.Labels, labels)
	return newBuilder
}

// WithUID sets the page UID, needed for owner references.
func (b *WebPageBuilder) WithUID(uid string) *WebPageBuilder {
	newBuilder := b.clone()
	newBuilder.page.UID = types.UID(uid)
	return newBuilder
}

// Build returns a copy of the built page.
func (b *WebPageBuilder) Build() *webpagev1alpha1.WebPage {
	return b.page.DeepCopy()
}

func (b *WebPageBuilder) clone() *WebPageBuilder {
	return &WebPageBuilder{page: *b.page.DeepCopy()}
}
