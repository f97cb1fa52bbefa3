// Package git wraps the go-git operations the pipeline needs: cloning the
// content repository into a workspace and force-pushing a rendered site to a
// publishing branch. Authentication (token, basic, ssh) is built from config.
package git
