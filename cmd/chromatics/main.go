// chromatics builds labeled enhancer-promoter training tables from
// chromatin segmentation, expression, Hi-C and signal-track inputs, and
// exposes the interval operations it is built on.
//
// The pipeline stages run in order, each taking a per-cell-line config:
//
//   chromatics enhancers K562/config.json
//   chromatics promoters K562/config.json
//   chromatics pairs K562/config.json
//   chromatics training K562/config.json
//   chromatics export K562/config.json
package main

import (
	"github.com/grailbio/base/grail"
	"v.io/x/lib/cmdline"
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "chromatics",
			Short:    "Enhancer-promoter interaction training data",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdEnhancers(),
				newCmdPromoters(),
				newCmdPairs(),
				newCmdTraining(),
				newCmdExport(),
				newCmdEnrichment(),
				newCmdIntersect(),
				newCmdMerge(),
				newCmdClosest(),
				newCmdCoverage(),
			},
		})
}
