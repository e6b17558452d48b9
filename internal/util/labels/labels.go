package labels

// Standard label keys for WebPage secondaries.
const (
	// KeyApp selects the pods serving a page
	KeyApp = "app"

	// KeyPage identifies which WebPage a resource belongs to
	KeyPage = "webpage.k8zner.io/page"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "webpage.k8zner.io/managed-by"

	// KeyLowLevel marks pages handled by a low-level reconciler; the
	// dependent resource reconciler skips them
	KeyLowLevel = "low-level"
)

// ManagedBy values
const (
	ManagedByOperator = "webpage-operator"
)

// LabelBuilder provides a fluent interface for building secondary labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder for the given app name.
func NewLabelBuilder(app string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyApp:       app,
			KeyManagedBy: ManagedByOperator,
		},
	}
}

// WithPage adds the owning page label.
func (lb *LabelBuilder) WithPage(page string) *LabelBuilder {
	lb.labels[KeyPage] = page
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// Selector returns the labels identifying the pods of app.
func Selector(app string) map[string]string {
	return map[string]string{KeyApp: app}
}
