// Package endpoint holds the service endpoints mounted under /.livepage/.
package endpoint
