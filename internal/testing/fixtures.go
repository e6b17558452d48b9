package testing

import (
	"testing"

	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	webpagev1alpha1 "github.com/imamik/webpage-operator/api/v1alpha1"
)

// NewScheme returns a scheme with the core, apps and webpage types registered.
func NewScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))
	require.NoError(t, appsv1.AddToScheme(scheme))
	require.NoError(t, webpagev1alpha1.AddToScheme(scheme))
	return scheme
}

// NewFakeClient returns a fake client seeded with objs. WebPage status is
// served as a subresource, like on a real API server.
func NewFakeClient(t *testing.T, objs ...client.Object) client.WithWatch {
	t.Helper()
	return fake.NewClientBuilder().
		WithScheme(NewScheme(t)).
		WithObjects(objs...).
		WithStatusSubresource(&webpagev1alpha1.WebPage{}).
		Build()
}
