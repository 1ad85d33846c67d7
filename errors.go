package ctk

const opFacade = "ctk"

type facadeErr string

func (e facadeErr) Error() string { return string(e) }

var (
	errClosed             = facadeErr("operation not valid after close")
	errNotSetUp           = facadeErr("electrodes, sampling rate and epoch length must be set before appending")
	errAlreadyAppending   = facadeErr("metadata setters are not allowed once appending has started")
	errChannelCount       = facadeErr("sample buffer length is not a multiple of the electrode count")
	errDuplicateEmbed     = facadeErr("embed label already used")
	errReservedEmbedLabel = facadeErr("embed label collides with a mandatory chunk identifier")
	errNoSuchEmbed        = facadeErr("no embedded chunk with that identifier")
)
