package command

type (
	// Version prints the campsite and Go versions.
	Version struct {
		Check bool `long:"check" description:"Exit with an error when the Go runtime is older than required"`
	}
)
