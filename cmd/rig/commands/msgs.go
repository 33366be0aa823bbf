package commands

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort    = "Converge this machine to your dotfiles manifest"
	MsgUpdateShort  = "Fetch the latest dotfiles state and converge"
	MsgStatusShort  = "Show what a converge run would change"
	MsgInitShort    = "Write a starter manifest into the dotfiles root"
	MsgDocsShort    = "Display manual topics"
	MsgVersionShort = "Print version information"

	// Flag descriptions
	MsgFlagVerbose     = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagYes         = "Accept prompt defaults without asking (non-interactive)"
	MsgFlagForce       = "Allow replacing regular files with symlinks (prompts first)"
	MsgFlagDryRun      = "Preview changes without executing them"
	MsgFlagRef         = "Revision to fetch (branch, tag or commit)"
	MsgFlagKeepDir     = "Persist a copy of the fetched state to this directory"
	MsgFlagArchiveOnly = "Fetch a tarball even when git is available"

	// Status messages
	MsgStatusConverged = "System is converged; nothing to do."
	MsgStatusMissing   = "Missing packages:"
	MsgStatusPending   = "Pending deployments:"
)

const MsgRootLong = `rig converges a machine to the state declared in your dotfiles
manifest: it installs missing packages, deploys dotfiles (symlink, copy
or append), and mirrors configuration trees, skipping everything that is
already in place. Runs are idempotent; converging twice changes nothing
the second time.`
