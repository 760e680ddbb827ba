package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/inferplan/inferplan/plan"
)

// printJSON marshals any report value with stable field order.
func printJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logrus.Fatalf("marshal report: %v", err)
	}
	fmt.Fprintln(w, string(data))
}

// printSystemReport renders one analyzed strategy as a device table plus the
// system verdict.
func printSystemReport(w io.Writer, r plan.SystemReport, asJSON bool) {
	if asJSON {
		printJSON(w, r)
		return
	}

	fmt.Fprintf(w, "Model:    %s\n", r.Model)
	fmt.Fprintf(w, "Strategy: %s\n", r.Strategy)
	if !r.Eligible {
		fmt.Fprintf(w, "Ineligible: %s\n", r.IneligibleReason)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tMEM (GB)\tMEM%\tLOCAL (GB/s)\tLOCAL%\tNET (GB/s)\tNET%\tCOMPUTE%\tBOTTLENECK")
	for _, d := range r.Devices {
		name := d.DeviceID
		overflow := ""
		if d.HasOverflow {
			overflow = fmt.Sprintf(" (+%.1f over)", d.ExcessGB)
		}
		fmt.Fprintf(tw, "%s\t%.2f%s\t%.1f\t%.2f\t%.1f\t%.2f\t%.1f\t%.1f\t%s\n",
			name,
			d.MemoryUsedGB, overflow, d.MemoryUtilization,
			d.LocalBWRequiredGBps, d.LocalBWUtilization,
			d.NetworkBWRequiredGBps, d.NetworkBWUtilization,
			d.ComputeUtilization,
			d.Bottleneck,
		)
	}
	tw.Flush()

	fmt.Fprintf(w, "Feasible:   %v\n", r.Feasible)
	fmt.Fprintf(w, "Bottleneck: %s\n", r.Bottleneck)
	fmt.Fprintf(w, "Prefill:    %.1f tok/s\n", r.PrefillTokensPerSec)
	fmt.Fprintf(w, "Decode:     %.1f tok/s\n", r.DecodeTokensPerSec)
}

// printOptimizeResult renders the ranked strategy comparison and the winner.
func printOptimizeResult(w io.Writer, result plan.OptimizeResult, asJSON bool) {
	if asJSON {
		printJSON(w, result)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSTRATEGY\tFEASIBLE\tDECODE (tok/s)\tPREFILL (tok/s)\tMEAN MEM%\tBOTTLENECK")
	for i, o := range result.Ranked {
		fmt.Fprintf(tw, "%d\t%s\t%v\t%.1f\t%.1f\t%.1f\t%s\n",
			i+1, o.Strategy, o.Feasible,
			o.DecodeTokensPerSec, o.PrefillTokensPerSec,
			o.MeanMemoryUtilization, o.Bottleneck,
		)
	}
	tw.Flush()

	for _, s := range result.Skipped {
		fmt.Fprintf(w, "skipped %s: %s\n", s.Strategy, s.Reason)
	}

	fmt.Fprintf(w, "\nWinner: %s (%v)\n", result.Winner.Strategy, result.Reasoning)
	printSystemReport(w, result.Winner, false)
}

// printPresets lists the built-in model and device presets.
func printPresets(w io.Writer) {
	fmt.Fprintln(w, "Device presets:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tLABEL\tMEM (GB)\tLOCAL (GB/s)\tNET (GB/s)")
	for _, name := range plan.DevicePresetNames() {
		d, _ := plan.DevicePreset(name)
		fmt.Fprintf(tw, "  %s\t%s\t%.0f\t%.0f\t%.0f\n", name, d.Label, d.MemoryGB, d.LocalBWGBps, d.NetworkBWGBps)
	}
	tw.Flush()

	fmt.Fprintln(w, "\nModel presets:")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tPARAMS (B)\tHIDDEN\tLAYERS\tHEADS\tMOE")
	for _, name := range plan.ModelPresetNames() {
		m, _ := plan.ModelPreset(name)
		moe := "-"
		if m.MoE != nil {
			moe = fmt.Sprintf("%d/%d active %.1fB", m.MoE.ActiveExperts, m.MoE.TotalExperts, m.MoE.ActiveParamsB)
		}
		fmt.Fprintf(tw, "  %s\t%.1f\t%d\t%d\t%d\t%s\n", name, m.ParamsB, m.HiddenSize, m.NumLayers, m.NumHeads, moe)
	}
	tw.Flush()
}
