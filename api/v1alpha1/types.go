// Package v1alpha1 contains API Schema definitions for the webpage.k8zner.io v1alpha1 API group
// +kubebuilder:object:generate=true
// +groupName=webpage.k8zner.io
package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// WebPageSpec defines the desired state of a served web page.
type WebPageSpec struct {
	// HTML is the content served as index.html
	HTML string `json:"html"`
}

// WebPageStatus defines the observed state of WebPage.
type WebPageStatus struct {
	// HTMLConfigMap is the name of the ConfigMap holding the page content
	// +optional
	HTMLConfigMap string `json:"htmlConfigMap,omitempty"`

	// AreWeGood is true when every dependent resource converged in the last pass
	// +optional
	AreWeGood bool `json:"areWeGood,omitempty"`

	// ErrorMessage describes the failure of the last pass, nil when it succeeded
	// +optional
	ErrorMessage *string `json:"errorMessage,omitempty"`

	// Conditions represent the latest available observations
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`

	// ObservedGeneration is the last observed generation
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=wp
// +kubebuilder:printcolumn:name="ConfigMap",type=string,JSONPath=`.status.htmlConfigMap`
// +kubebuilder:printcolumn:name="Good",type=boolean,JSONPath=`.status.areWeGood`
// +kubebuilder:printcolumn:name="Error",type=string,JSONPath=`.status.errorMessage`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// WebPage is the Schema for the webpages API.
type WebPage struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   WebPageSpec   `json:"spec,omitempty"`
	Status WebPageStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// WebPageList contains a list of WebPage.
type WebPageList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []WebPage `json:"items"`
}

// Condition types for WebPage
const (
	// ConditionReady indicates all dependent resources converged
	ConditionReady = "Ready"
)

// Condition reasons for WebPage
const (
	ReasonReconciled      = "Reconciled"
	ReasonReconcileFailed = "ReconcileFailed"
)
