package webpage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8slabels "k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	webpagev1alpha1 "github.com/imamik/webpage-operator/api/v1alpha1"
	"github.com/imamik/webpage-operator/internal/config"
	"github.com/imamik/webpage-operator/internal/operator/association"
	"github.com/imamik/webpage-operator/internal/operator/controller"
	"github.com/imamik/webpage-operator/internal/operator/reconciler"
	"github.com/imamik/webpage-operator/internal/operator/store"
	optesting "github.com/imamik/webpage-operator/internal/testing"
)

type env struct {
	client     client.Client
	store      *optesting.RecordingStore
	reconciler *Reconciler
	controller *controller.Controller[page]
}

func newEnv(t *testing.T, objs ...client.Object) *env {
	t.Helper()
	c := optesting.NewFakeClient(t, objs...)
	rs := optesting.NewRecordingStore(store.NewClientStore(c, store.WithMetrics(false)))

	cfg := config.Default()
	r, err := NewReconciler(rs, c.Scheme(), OptionsFromConfig(cfg))
	require.NoError(t, err)
	for _, s := range r.secondaries {
		s.(interface{ SetMetricsEnabled(bool) }).SetMetricsEnabled(false)
	}

	sel, err := cfg.Selector()
	require.NoError(t, err)
	ctl := controller.New(ControllerName, rs, func() page { return &webpagev1alpha1.WebPage{} }, r,
		controller.WithRecorder(record.NewFakeRecorder(10)),
		controller.WithLabelSelector(sel),
		controller.WithMetrics(false),
	)
	return &env{client: c, store: rs, reconciler: r, controller: ctl}
}

func (e *env) reconcile(t *testing.T) error {
	t.Helper()
	_, err := e.controller.Reconcile(optesting.TestContext(t), ctrl.Request{
		NamespacedName: reconciler.ResourceID{Name: "site1", Namespace: "ns1"}.NamespacedName(),
	})
	return err
}

func (e *env) page(t *testing.T) page {
	t.Helper()
	p := &webpagev1alpha1.WebPage{}
	require.NoError(t, e.client.Get(context.Background(), client.ObjectKey{Name: "site1", Namespace: "ns1"}, p))
	return p
}

func (e *env) secondaryMutations() []optesting.StoreCall {
	var out []optesting.StoreCall
	for _, call := range e.store.Mutations() {
		if call.Kind != "WebPage" {
			out = append(out, call)
		}
	}
	return out
}

func site1(html string) *webpagev1alpha1.WebPage {
	return optesting.NewWebPageBuilder("site1", "ns1").WithUID("uid-site1").WithHTML(html).Build()
}

func pod(name, app string) *corev1.Pod {
	return &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
		Name:      name,
		Namespace: "ns1",
		Labels:    map[string]string{"app": app},
	}}
}

func TestScenarioCreate(t *testing.T) {
	e := newEnv(t, site1("<h1>hi</h1>"))
	ctx := context.Background()

	require.NoError(t, e.reconcile(t))

	cm := &corev1.ConfigMap{}
	require.NoError(t, e.client.Get(ctx, client.ObjectKey{Name: "site1-html", Namespace: "ns1"}, cm))
	assert.Equal(t, map[string]string{"index.html": "<h1>hi</h1>"}, cm.Data)
	require.NotNil(t, metav1.GetControllerOf(cm))
	assert.Equal(t, "site1", metav1.GetControllerOf(cm).Name)

	dep := &appsv1.Deployment{}
	require.NoError(t, e.client.Get(ctx, client.ObjectKey{Name: "site1", Namespace: "ns1"}, dep))
	require.Len(t, dep.Spec.Template.Spec.Volumes, 1)
	assert.Equal(t, "site1-html", dep.Spec.Template.Spec.Volumes[0].ConfigMap.Name)
	assert.Equal(t, map[string]string{"app": "site1"}, dep.Spec.Selector.MatchLabels)
	assert.Equal(t, "site1", dep.Spec.Template.Labels["app"])

	svc := &corev1.Service{}
	require.NoError(t, e.client.Get(ctx, client.ObjectKey{Name: "site1", Namespace: "ns1"}, svc))
	assert.Equal(t, map[string]string{"app": "site1"}, svc.Spec.Selector)

	p := e.page(t)
	assert.Equal(t, "site1-html", p.Status.HTMLConfigMap)
	assert.True(t, p.Status.AreWeGood)
	assert.Nil(t, p.Status.ErrorMessage)
	assert.Equal(t, p.Generation, p.Status.ObservedGeneration)
	assert.True(t, apimeta.IsStatusConditionTrue(p.Status.Conditions, webpagev1alpha1.ConditionReady))

	var created []string
	for _, call := range e.store.CallsFor(optesting.OpCreate, "ConfigMap") {
		created = append(created, call.Kind+"/"+call.ID.Name)
	}
	for _, call := range e.store.CallsFor(optesting.OpCreate, "Deployment") {
		created = append(created, call.Kind+"/"+call.ID.Name)
	}
	for _, call := range e.store.CallsFor(optesting.OpCreate, "Service") {
		created = append(created, call.Kind+"/"+call.ID.Name)
	}
	assert.Equal(t, []string{"ConfigMap/site1-html", "Deployment/site1", "Service/site1"}, created)
}

func TestScenarioIdempotent(t *testing.T) {
	e := newEnv(t, site1("<h1>hi</h1>"))
	require.NoError(t, e.reconcile(t))
	e.store.Reset()

	require.NoError(t, e.reconcile(t))

	assert.Empty(t, e.secondaryMutations())
	assert.Len(t, e.store.CallsFor(optesting.OpGet, "ConfigMap"), 1)
	assert.Len(t, e.store.CallsFor(optesting.OpGet, "Deployment"), 1)
	assert.Len(t, e.store.CallsFor(optesting.OpGet, "Service"), 1)
}

func TestScenarioUpdate(t *testing.T) {
	e := newEnv(t, site1("<h1>hi</h1>"), pod("site1-abc", "site1"), pod("site2-abc", "site2"))
	ctx := context.Background()
	require.NoError(t, e.reconcile(t))

	p := e.page(t)
	p.Spec.HTML = "<h1>bye</h1>"
	require.NoError(t, e.client.Update(ctx, p))
	e.store.Reset()

	require.NoError(t, e.reconcile(t))

	assert.Len(t, e.store.CallsFor(optesting.OpUpdate, "ConfigMap"), 1)
	assert.Empty(t, e.store.CallsFor(optesting.OpUpdate, "Deployment"))
	assert.Empty(t, e.store.CallsFor(optesting.OpUpdate, "Service"))
	deletes := e.store.CallsFor(optesting.OpDeleteBySelector, "Pod")
	require.Len(t, deletes, 1)
	assert.Equal(t, "app=site1", deletes[0].Selector)
	assert.Len(t, e.secondaryMutations(), 2)

	cm := &corev1.ConfigMap{}
	require.NoError(t, e.client.Get(ctx, client.ObjectKey{Name: "site1-html", Namespace: "ns1"}, cm))
	assert.Equal(t, "<h1>bye</h1>", cm.Data["index.html"])

	pods := &corev1.PodList{}
	require.NoError(t, e.client.List(ctx, pods, client.InNamespace("ns1")))
	require.Len(t, pods.Items, 1)
	assert.Equal(t, "site2-abc", pods.Items[0].Name)

	e.store.Reset()
	require.NoError(t, e.reconcile(t))
	assert.Empty(t, e.secondaryMutations(), "pods are not restarted again once converged")
}

func TestScenarioError(t *testing.T) {
	e := newEnv(t, site1("<p>an error page</p>"))

	err := e.reconcile(t)
	require.Error(t, err)
	assert.True(t, reconciler.IsPreconditionError(err))

	assert.Empty(t, e.secondaryMutations())
	assert.Len(t, e.store.CallsFor(optesting.OpUpdateStatus, "WebPage"), 1)

	p := e.page(t)
	require.NotNil(t, p.Status.ErrorMessage)
	assert.Equal(t, "Error: Simulating error", *p.Status.ErrorMessage)
	assert.False(t, p.Status.AreWeGood)
	assert.True(t, apimeta.IsStatusConditionFalse(p.Status.Conditions, webpagev1alpha1.ConditionReady))
}

func TestScenarioErrorRecovers(t *testing.T) {
	e := newEnv(t, site1("<p>error</p>"))
	require.Error(t, e.reconcile(t))

	p := e.page(t)
	p.Spec.HTML = "<p>fixed</p>"
	require.NoError(t, e.client.Update(context.Background(), p))

	require.NoError(t, e.reconcile(t))
	p = e.page(t)
	assert.Nil(t, p.Status.ErrorMessage)
	assert.True(t, p.Status.AreWeGood)
}

func TestLowLevelPagesAreSkipped(t *testing.T) {
	p := optesting.NewWebPageBuilder("site1", "ns1").WithLabels(map[string]string{"low-level": "true"}).Build()
	e := newEnv(t, p)

	require.NoError(t, e.reconcile(t))
	assert.Empty(t, e.store.Mutations())
}

func TestDependentFailureAbortsPass(t *testing.T) {
	e := newEnv(t, site1("<h1>hi</h1>"))
	sentinel := errors.New("quota exceeded")
	e.store.FailFunc = func(op, kind string) error {
		if op == optesting.OpCreate && kind == "Deployment" {
			return sentinel
		}
		return nil
	}

	err := e.reconcile(t)
	assert.ErrorIs(t, err, sentinel)

	assert.Len(t, e.store.CallsFor(optesting.OpCreate, "ConfigMap"), 1)
	assert.Empty(t, e.store.CallsFor(optesting.OpGet, "Service"), "later dependents do not run")

	p := e.page(t)
	require.NotNil(t, p.Status.ErrorMessage)
	assert.Contains(t, *p.Status.ErrorMessage, "quota exceeded")
}

func TestPodRestartFailureFailsPass(t *testing.T) {
	e := newEnv(t, site1("<h1>hi</h1>"), pod("site1-abc", "site1"))
	ctx := context.Background()
	require.NoError(t, e.reconcile(t))

	p := e.page(t)
	p.Spec.HTML = "<h1>bye</h1>"
	require.NoError(t, e.client.Update(ctx, p))
	e.store.Reset()

	e.store.FailFunc = func(op, kind string) error {
		if op == optesting.OpDeleteBySelector && kind == "Pod" {
			return errors.New("forbidden")
		}
		return nil
	}

	err := e.reconcile(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
	assert.Len(t, e.store.CallsFor(optesting.OpUpdate, "ConfigMap"), 1)
	assert.Empty(t, e.store.CallsFor(optesting.OpGet, "Service"), "later dependents do not run")

	p = e.page(t)
	require.NotNil(t, p.Status.ErrorMessage)
	assert.Contains(t, *p.Status.ErrorMessage, "forbidden")
	assert.False(t, p.Status.AreWeGood)

	cm := &corev1.ConfigMap{}
	require.NoError(t, e.client.Get(ctx, client.ObjectKey{Name: "site1-html", Namespace: "ns1"}, cm))
	assert.Equal(t, "<h1>bye</h1>", cm.Data["index.html"])

	e.store.FailFunc = nil
	e.store.Reset()
	require.NoError(t, e.reconcile(t))

	assert.Empty(t, e.store.CallsFor(optesting.OpDeleteBySelector, "Pod"), "restart is not repeated once the content converged")
	p = e.page(t)
	assert.Nil(t, p.Status.ErrorMessage)
	assert.True(t, p.Status.AreWeGood)
}

func TestUpdateErrorStatus(t *testing.T) {
	r := &Reconciler{}
	p := site1("<h1>hi</h1>")

	decision := r.UpdateErrorStatus(nil, p, errors.New("boom"))
	got, ok := decision.Resource()
	require.True(t, ok)
	assert.True(t, decision.IsUpdateStatus())
	assert.False(t, decision.IsPatch())
	assert.Equal(t, "Error: boom", *got.Status.ErrorMessage)
}

func TestPrecondition(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		html   string
		passed bool
	}{
		{name: "no marker in html", marker: "error", html: "<h1>hi</h1>", passed: true},
		{name: "marker in html", marker: "error", html: "<h1>error</h1>", passed: false},
		{name: "marker disabled", marker: "", html: "<h1>error</h1>", passed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reconciler{errorMarker: tt.marker}
			res := r.precondition(site1(tt.html))
			assert.Equal(t, tt.passed, res.Passed)
			if !tt.passed {
				assert.Equal(t, SimulatedErrorReason, res.Reason)
			}
		})
	}
}

func TestWatches(t *testing.T) {
	e := newEnv(t)
	registry, err := association.NewRegistry(e.client, e.client.Scheme(), &webpagev1alpha1.WebPage{},
		func() client.ObjectList { return &webpagev1alpha1.WebPageList{} })
	require.NoError(t, err)

	watches, err := e.reconciler.watches(registry)
	require.NoError(t, err)
	require.Len(t, watches, 3)
	assert.IsType(t, &corev1.ConfigMap{}, watches[0].Object)
	assert.IsType(t, &appsv1.Deployment{}, watches[1].Object)
	assert.IsType(t, &corev1.Service{}, watches[2].Object)

	ids, err := registry.Resolve(context.Background(), &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "site1-html", Namespace: "ns1"},
	})
	assert.ErrorIs(t, err, association.ErrUnresolved, "no page exists yet")
	assert.Empty(t, ids)

	_, err = e.reconciler.watches(registry)
	assert.Error(t, err, "kinds can only be registered once")
}

func TestSecondarySelectors(t *testing.T) {
	e := newEnv(t)
	for _, s := range e.reconciler.secondaries {
		assert.False(t, s.Selector().Matches(k8slabels.Set{"low-level": "true"}), s.Name())
		assert.True(t, s.Selector().Matches(k8slabels.Set{"app": "site1"}), s.Name())
	}
}

func TestTemplates(t *testing.T) {
	d, err := deploymentTemplate()
	require.NoError(t, err)
	require.Len(t, d.Spec.Template.Spec.Containers, 1)
	assert.Equal(t, "nginx", d.Spec.Template.Spec.Containers[0].Name)
	assert.Equal(t, "/usr/share/nginx/html", d.Spec.Template.Spec.Containers[0].VolumeMounts[0].MountPath)
	require.NotNil(t, d.Spec.Template.Spec.Volumes[0].ConfigMap)

	s, err := serviceTemplate()
	require.NoError(t, err)
	require.Len(t, s.Spec.Ports, 1)
	assert.Equal(t, int32(80), s.Spec.Ports[0].Port)

	assert.Error(t, loadTemplate("missing.yaml", &corev1.Service{}))
}
