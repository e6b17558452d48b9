package webpage

import (
	"errors"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	k8slabels "k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"

	webpagev1alpha1 "github.com/imamik/webpage-operator/api/v1alpha1"
	"github.com/imamik/webpage-operator/internal/operator/dependent"
	"github.com/imamik/webpage-operator/internal/operator/reconciler"
	"github.com/imamik/webpage-operator/internal/operator/store"
	"github.com/imamik/webpage-operator/internal/util/labels"
	"github.com/imamik/webpage-operator/internal/util/naming"
)

// Dependent names, in reconciliation order.
const (
	ConfigMapDependent  = "config-map"
	DeploymentDependent = "deployment"
	ServiceDependent    = "service"
)

// IndexHTMLKey is the ConfigMap key holding the page content.
const IndexHTMLKey = "index.html"

type page = *webpagev1alpha1.WebPage

var errConfigMapNotReconciled = errors.New("config map was not reconciled in this pass")

// configMapID maps a page to its content ConfigMap.
func configMapID(primary reconciler.ResourceID) reconciler.ResourceID {
	return reconciler.ResourceID{Name: naming.ConfigMap(primary.Name), Namespace: primary.Namespace}
}

func desiredConfigMap(_ *reconciler.Context, p page) (*corev1.ConfigMap, error) {
	cm := &corev1.ConfigMap{}
	cm.Name = naming.ConfigMap(p.Name)
	cm.Namespace = p.Namespace
	cm.Labels = labels.NewLabelBuilder(naming.Deployment(p.Name)).WithPage(p.Name).Build()
	cm.Data = map[string]string{IndexHTMLKey: p.Spec.HTML}
	return cm, nil
}

// configMapMatcher requires the payload to be exactly the desired one, so
// keys removed from the page are removed from the ConfigMap too.
func configMapMatcher(actual, desired *corev1.ConfigMap) (bool, error) {
	return equality.Semantic.DeepEqual(actual.Data, desired.Data) &&
		equality.Semantic.DeepEqual(actual.BinaryData, desired.BinaryData) &&
		dependent.LabelsAndAnnotationsMatch(actual, desired), nil
}

// configMapUpdater restarts the page's pods after a content change so they
// serve it without waiting for the kubelet to refresh the mounted volume.
type configMapUpdater struct {
	dependent.MergeUpdater[*corev1.ConfigMap, page]
}

func (u configMapUpdater) Update(rc *reconciler.Context, actual, desired *corev1.ConfigMap, p page) (*corev1.ConfigMap, error) {
	// The desired payload replaces the stored one instead of merging into it.
	base := actual.DeepCopy()
	base.Data = nil
	base.BinaryData = nil

	res, err := u.MergeUpdater.Update(rc, base, desired, p)
	if err != nil {
		return nil, err
	}

	ns := actual.Namespace
	rc.Logger().Info("restarting pods because HTML has changed", "namespace", ns)
	selector := k8slabels.SelectorFromSet(labels.Selector(naming.Deployment(p.Name)))
	if err := u.Store.DeleteBySelector(rc.Ctx(), &corev1.Pod{}, ns, selector); err != nil {
		return nil, err
	}
	return res, nil
}

func newConfigMapDependent(st store.Store, scheme *runtime.Scheme, selector string) (*dependent.KubernetesDependentResource[*corev1.ConfigMap, page], error) {
	return dependent.New(st, dependent.Config[*corev1.ConfigMap, page]{
		Name:          ConfigMapDependent,
		Desired:       desiredConfigMap,
		Matcher:       dependent.MatcherFunc[*corev1.ConfigMap](configMapMatcher),
		Updater:       configMapUpdater{MergeUpdater: dependent.MergeUpdater[*corev1.ConfigMap, page]{Store: st}},
		SecondaryID:   configMapID,
		LabelSelector: selector,
		Scheme:        scheme,
	})
}

// deploymentDesired builds the nginx Deployment serving the ConfigMap
// produced earlier in the pass.
func deploymentDesired(configMaps *dependent.KubernetesDependentResource[*corev1.ConfigMap, page]) dependent.DesiredFunc[*appsv1.Deployment, page] {
	return func(rc *reconciler.Context, p page) (*appsv1.Deployment, error) {
		cm, ok := configMaps.GetResource(rc, p)
		if !ok {
			return nil, errConfigMapNotReconciled
		}

		d, err := deploymentTemplate()
		if err != nil {
			return nil, err
		}
		name := naming.Deployment(p.Name)
		d.Name = name
		d.Namespace = p.Namespace
		d.Labels = labels.NewLabelBuilder(name).WithPage(p.Name).Build()
		d.Spec.Selector.MatchLabels = labels.Selector(name)
		d.Spec.Template.Labels = labels.Selector(name)
		d.Spec.Template.Spec.Volumes[0].ConfigMap.Name = cm.Name
		return d, nil
	}
}

func newDeploymentDependent(st store.Store, scheme *runtime.Scheme, selector string,
	configMaps *dependent.KubernetesDependentResource[*corev1.ConfigMap, page],
) (*dependent.KubernetesDependentResource[*appsv1.Deployment, page], error) {
	return dependent.New(st, dependent.Config[*appsv1.Deployment, page]{
		Name:          DeploymentDependent,
		Desired:       deploymentDesired(configMaps),
		LabelSelector: selector,
		Scheme:        scheme,
	})
}

// serviceDesired builds the Service selecting the pods of the Deployment
// produced earlier in the pass.
func serviceDesired(deployments *dependent.KubernetesDependentResource[*appsv1.Deployment, page]) dependent.DesiredFunc[*corev1.Service, page] {
	return func(rc *reconciler.Context, p page) (*corev1.Service, error) {
		app := naming.Deployment(p.Name)
		if d, ok := deployments.GetResource(rc, p); ok {
			app = d.Name
		}

		s, err := serviceTemplate()
		if err != nil {
			return nil, err
		}
		s.Name = naming.Service(p.Name)
		s.Namespace = p.Namespace
		s.Labels = labels.NewLabelBuilder(app).WithPage(p.Name).Build()
		s.Spec.Selector = labels.Selector(app)
		return s, nil
	}
}

func newServiceDependent(st store.Store, scheme *runtime.Scheme, selector string,
	deployments *dependent.KubernetesDependentResource[*appsv1.Deployment, page],
) (*dependent.KubernetesDependentResource[*corev1.Service, page], error) {
	return dependent.New(st, dependent.Config[*corev1.Service, page]{
		Name:          ServiceDependent,
		Desired:       serviceDesired(deployments),
		LabelSelector: selector,
		Scheme:        scheme,
	})
}
