// Package init registers the built-in VCS reporters via their package
// init functions. Import it for side effects from the command layer.
package init

import (
	_ "github.com/sanix-darker/quorum/internal/vcs/github"
	_ "github.com/sanix-darker/quorum/internal/vcs/gitlab"
)
