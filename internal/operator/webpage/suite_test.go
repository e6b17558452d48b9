//go:build integration

// Envtest integration tests for the WebPage controller. They run against a
// real kube-apiserver and etcd.
//
// Run these tests with:
//
//	KUBEBUILDER_ASSETS="$(setup-envtest use -p path)" go test -v -tags=integration ./internal/operator/webpage/...
package webpage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/envtest"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	webpagev1alpha1 "github.com/imamik/webpage-operator/api/v1alpha1"
	"github.com/imamik/webpage-operator/internal/config"
	"github.com/imamik/webpage-operator/internal/util/labels"
	"github.com/imamik/webpage-operator/internal/util/naming"
)

var (
	restCfg   *rest.Config
	k8sClient client.Client
	testEnv   *envtest.Environment
	ctx       context.Context
	cancel    context.CancelFunc
)

func TestWebPageIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "WebPage Integration Suite")
}

var _ = BeforeSuite(func() {
	logf.SetLogger(zap.New(zap.WriteTo(GinkgoWriter), zap.UseDevMode(true)))

	ctx, cancel = context.WithCancel(context.Background())

	By("bootstrapping test environment with real kube-apiserver and etcd")
	testEnv = &envtest.Environment{
		CRDDirectoryPaths:     []string{filepath.Join("..", "..", "..", "config", "crd", "bases")},
		ErrorIfCRDPathMissing: true,
	}

	var err error
	restCfg, err = testEnv.Start()
	Expect(err).NotTo(HaveOccurred())
	Expect(restCfg).NotTo(BeNil())

	Expect(webpagev1alpha1.AddToScheme(scheme.Scheme)).To(Succeed())

	k8sClient, err = client.New(restCfg, client.Options{Scheme: scheme.Scheme})
	Expect(err).NotTo(HaveOccurred())

	mgr, err := ctrl.NewManager(restCfg, ctrl.Options{
		Scheme:  scheme.Scheme,
		Metrics: metricsserver.Options{BindAddress: "0"},
	})
	Expect(err).NotTo(HaveOccurred())

	cfg := config.Default()
	cfg.Manager.LeaderElection = false
	Expect(Setup(mgr, cfg)).To(Succeed())

	go func() {
		defer GinkgoRecover()
		Expect(mgr.Start(ctx)).To(Succeed())
	}()

	By("waiting for manager cache to sync")
	Eventually(func() bool {
		return mgr.GetCache().WaitForCacheSync(ctx)
	}, time.Second*30, time.Millisecond*500).Should(BeTrue(), "timed out waiting for cache sync")
})

var _ = AfterSuite(func() {
	cancel()
	By("tearing down the test environment")
	Expect(testEnv.Stop()).To(Succeed())
})

var _ = Describe("WebPage Controller", func() {
	const (
		timeout  = time.Second * 30
		interval = time.Millisecond * 250
	)

	var (
		namespace string
		pageName  string
	)

	BeforeEach(func() {
		namespace = fmt.Sprintf("webpage-%d-%d", GinkgoRandomSeed(), GinkgoParallelProcess())
		ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{GenerateName: namespace + "-"}}
		Expect(k8sClient.Create(ctx, ns)).To(Succeed())
		namespace = ns.Name
		pageName = "site1"
	})

	createPage := func(html string, pageLabels map[string]string) *webpagev1alpha1.WebPage {
		p := &webpagev1alpha1.WebPage{
			ObjectMeta: metav1.ObjectMeta{Name: pageName, Namespace: namespace, Labels: pageLabels},
			Spec:       webpagev1alpha1.WebPageSpec{HTML: html},
		}
		Expect(k8sClient.Create(ctx, p)).To(Succeed())
		return p
	}

	getPage := func() *webpagev1alpha1.WebPage {
		p := &webpagev1alpha1.WebPage{}
		Expect(k8sClient.Get(ctx, types.NamespacedName{Name: pageName, Namespace: namespace}, p)).To(Succeed())
		return p
	}

	configMapKey := func() types.NamespacedName {
		return types.NamespacedName{Name: naming.ConfigMap(pageName), Namespace: namespace}
	}

	htmlOf := func() (string, error) {
		cm := &corev1.ConfigMap{}
		if err := k8sClient.Get(ctx, configMapKey(), cm); err != nil {
			return "", err
		}
		return cm.Data[IndexHTMLKey], nil
	}

	It("creates the config map, deployment and service and reports success", func() {
		createPage("<h1>hi</h1>", nil)

		Eventually(htmlOf, timeout, interval).Should(Equal("<h1>hi</h1>"))

		deployment := &appsv1.Deployment{}
		Eventually(func() error {
			return k8sClient.Get(ctx, types.NamespacedName{Name: naming.Deployment(pageName), Namespace: namespace}, deployment)
		}, timeout, interval).Should(Succeed())
		Expect(metav1.GetControllerOf(deployment)).NotTo(BeNil())

		service := &corev1.Service{}
		Eventually(func() error {
			return k8sClient.Get(ctx, types.NamespacedName{Name: naming.Service(pageName), Namespace: namespace}, service)
		}, timeout, interval).Should(Succeed())
		Expect(service.Spec.Selector).To(HaveKeyWithValue(labels.KeyApp, pageName))

		Eventually(func() bool {
			p := getPage()
			return p.Status.AreWeGood && p.Status.HTMLConfigMap == naming.ConfigMap(pageName) && p.Status.ErrorMessage == nil
		}, timeout, interval).Should(BeTrue())
	})

	It("propagates html changes to the config map", func() {
		createPage("<h1>hi</h1>", nil)
		Eventually(htmlOf, timeout, interval).Should(Equal("<h1>hi</h1>"))

		Eventually(func() error {
			p := getPage()
			p.Spec.HTML = "<h1>bye</h1>"
			return k8sClient.Update(ctx, p)
		}, timeout, interval).Should(Succeed())

		Eventually(htmlOf, timeout, interval).Should(Equal("<h1>bye</h1>"))
	})

	It("reports the simulated error in status", func() {
		createPage("<h1>error</h1>", nil)

		Eventually(func() string {
			p := getPage()
			if p.Status.ErrorMessage == nil {
				return ""
			}
			return *p.Status.ErrorMessage
		}, timeout, interval).Should(Equal("Error: " + SimulatedErrorReason))
		Expect(getPage().Status.AreWeGood).To(BeFalse())

		_, err := htmlOf()
		Expect(apierrors.IsNotFound(err)).To(BeTrue())
	})

	It("recreates a deleted config map", func() {
		createPage("<h1>hi</h1>", nil)
		Eventually(htmlOf, timeout, interval).Should(Equal("<h1>hi</h1>"))

		cm := &corev1.ConfigMap{}
		Expect(k8sClient.Get(ctx, configMapKey(), cm)).To(Succeed())
		uid := cm.UID
		Expect(k8sClient.Delete(ctx, cm)).To(Succeed())

		Eventually(func() bool {
			recreated := &corev1.ConfigMap{}
			if err := k8sClient.Get(ctx, configMapKey(), recreated); err != nil {
				return false
			}
			return recreated.UID != uid
		}, timeout, interval).Should(BeTrue())
	})

	It("ignores low-level pages", func() {
		createPage("<h1>hi</h1>", map[string]string{labels.KeyLowLevel: "true"})

		Consistently(func() bool {
			_, err := htmlOf()
			return apierrors.IsNotFound(err)
		}, time.Second*3, interval).Should(BeTrue())
		Expect(getPage().Status.HTMLConfigMap).To(BeEmpty())
	})
})
