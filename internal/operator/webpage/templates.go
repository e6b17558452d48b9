package webpage

import (
	"embed"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"
)

//go:embed templates/*.yaml
var templatesFS embed.FS

// loadTemplate decodes an embedded manifest into out.
func loadTemplate(name string, out any) error {
	raw, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", name, err)
	}
	if err := yaml.UnmarshalStrict(raw, out); err != nil {
		return fmt.Errorf("failed to decode template %s: %w", name, err)
	}
	return nil
}

func deploymentTemplate() (*appsv1.Deployment, error) {
	d := &appsv1.Deployment{}
	if err := loadTemplate("deployment.yaml", d); err != nil {
		return nil, err
	}
	if len(d.Spec.Template.Spec.Volumes) == 0 || d.Spec.Template.Spec.Volumes[0].ConfigMap == nil {
		return nil, fmt.Errorf("deployment template must declare a configMap volume")
	}
	return d, nil
}

func serviceTemplate() (*corev1.Service, error) {
	s := &corev1.Service{}
	if err := loadTemplate("service.yaml", s); err != nil {
		return nil, err
	}
	return s, nil
}
