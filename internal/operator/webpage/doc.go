// Package webpage implements the WebPage operator on top of the dependent
// resource engine.
//
// A WebPage is served by three secondaries, reconciled in this order:
//
//	<name>-html  ConfigMap   index.html from spec.html
//	<name>       Deployment  nginx mounting the ConfigMap
//	<name>       Service     selecting app=<name>
//
// A content change updates the ConfigMap and deletes the page's pods so the
// Deployment recreates them with the new files. Pages whose HTML contains the
// configured error marker fail before any secondary is touched and get the
// failure recorded on their status.
package webpage
