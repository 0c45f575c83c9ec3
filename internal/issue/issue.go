// SPDX-License-Identifier: MPL-2.0

package issue

import "github.com/charmbracelet/glamour"

// Id identifies a catalog entry.
type Id int

const (
	ProjectFileNotFoundId Id = iota + 1
	ProjectParseErrorId
	MissingEntryPointId
	UnresolvedDependencyId
	PathConflictId
	ArchiveWriteFailedId
	ConfigLoadFailedId
	LockFileInvalidId
)

// MarkdownMsg is guidance text rendered with glamour.
type MarkdownMsg string

// Issue is a catalog entry with Markdown guidance for one failure kind.
type Issue struct {
	id    Id
	mdMsg MarkdownMsg
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the guidance for a terminal using a glamour style such as
// "dark", "light" or "notty".
func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	projectFileNotFoundIssue = &Issue{
		id: ProjectFileNotFoundId,
		mdMsg: `
# No project file found!

fatpack reads the dependency declarations from a ` + "`fatpack.cue`" + ` file.

## Things you can try:
- Run the command from the directory that holds ` + "`fatpack.cue`" + `
- Point to the file explicitly:
~~~
$ fatpack assemble --file path/to/fatpack.cue
~~~

## Minimal project file:
~~~cue
name:    "my-plugin"
version: "1.0.0"
build_output: ["build/classes/java/main"]
manifest: entry_point: "com.example.Main"
dependencies: [
	{id: "org.yaml:snakeyaml:1.26", classification: "bundled"},
]
~~~`,
	}

	projectParseErrorIssue = &Issue{
		id: ProjectParseErrorId,
		mdMsg: `
# Failed to parse the project file!

The project file does not match the expected schema. The error above names
the offending field using a path such as ` + "`dependencies[2].classification`" + `.

## Common issues:
- ` + "`classification`" + ` must be "provided" or "bundled"
- dependency ids use the ` + "`group:name:version`" + ` form
- ` + "`duplicate_policy`" + ` must be "error" or "first-wins"
- unknown fields are rejected; check for typos

## Things you can try:
~~~
$ fatpack validate
~~~`,
	}

	missingEntryPointIssue = &Issue{
		id: MissingEntryPointId,
		mdMsg: `
# No entry point configured!

The archive manifest must name the class the host application starts.
Nothing was written.

## Things you can try:
- Add it to the project file:
~~~cue
manifest: entry_point: "com.example.Main"
~~~
- Or pass it on the command line:
~~~
$ fatpack assemble --entry-point com.example.Main
~~~`,
	}

	unresolvedDependencyIssue = &Issue{
		id: UnresolvedDependencyId,
		mdMsg: `
# Dependency could not be resolved!

A bundled dependency, or something it depends on, has no content in any
configured repository.

## Things you can try:
- Check the coordinate for typos
- Make sure the artifact is present in a local repository, for instance by
  building once with your regular build tool
- List the repositories fatpack searches:
~~~
$ fatpack config show
~~~
- Refresh the lock file if artifacts moved:
~~~
$ fatpack resolve
~~~`,
	}

	pathConflictIssue = &Issue{
		id: PathConflictId,
		mdMsg: `
# Two dependencies write the same path!

The duplicate policy is set to "error", so fatpack refuses to pick one.
Nothing was written.

## Things you can try:
- Exclude one of the libraries:
~~~cue
dependencies: [
	{id: "com.example:lib:1.0", exclusions: [{group: "org.conflicting"}]},
]
~~~
- Drop the entry everywhere with ` + "`entry_excludes`" + `
- Keep the first-listed library's entry instead:
~~~
$ fatpack assemble --duplicate-policy first-wins
~~~`,
	}

	archiveWriteFailedIssue = &Issue{
		id: ArchiveWriteFailedId,
		mdMsg: `
# Failed to write the archive!

An I/O error occurred while reading a source or writing the output. The
partially written archive has been removed.

## Things you can try:
- Check free disk space and permissions of the output directory
- Make sure no other process holds the output file open
- Re-run with --verbose to see which entry failed`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The user configuration file could not be read or is invalid.

## Things you can try:
- Show the effective configuration:
~~~
$ fatpack config show
~~~
- Check the file against this example:
~~~cue
repositories: ["~/.m2/repository"]
duplicate_policy: "first-wins"
log: level: "info"
~~~`,
	}

	lockFileInvalidIssue = &Issue{
		id: LockFileInvalidId,
		mdMsg: `
# The lock file is invalid!

` + "`fatpack.lock.toml`" + ` could not be decoded or was written by an
incompatible version.

## Things you can try:
- Regenerate it:
~~~
$ fatpack resolve
~~~
- Or ignore it for one run:
~~~
$ fatpack assemble --no-lock
~~~`,
	}

	issues = map[Id]*Issue{
		projectFileNotFoundIssue.Id():  projectFileNotFoundIssue,
		projectParseErrorIssue.Id():    projectParseErrorIssue,
		missingEntryPointIssue.Id():    missingEntryPointIssue,
		unresolvedDependencyIssue.Id(): unresolvedDependencyIssue,
		pathConflictIssue.Id():         pathConflictIssue,
		archiveWriteFailedIssue.Id():   archiveWriteFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		lockFileInvalidIssue.Id():      lockFileInvalidIssue,
	}
)

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
