package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/beevik/etree"

	"github.com/alamin-mahamud/dotfiles/pkg/command"
)

const nerdFontsBaseURL = "https://github.com/ryanoasis/nerd-fonts/releases/latest/download"

// InstallDesktopEnvironment installs fonts and keyboard remapping.
// Failures are warnings.
func (i *Installer) InstallDesktopEnvironment(ctx context.Context) {
	i.installFonts(ctx)
	i.setupKeyboard(ctx)
}

// installFonts downloads and unpacks the configured Nerd Fonts into
// the user font directory, then refreshes the font cache. Per-font
// failures are warnings.
func (i *Installer) installFonts(ctx context.Context) {
	fontsDir := filepath.Join(xdg.DataHome, "fonts")
	if err := i.files.EnsureDir(fontsDir); err != nil {
		i.log.Warn().Err(err).Msg("Cannot create fonts directory")
		return
	}

	for _, font := range i.cfg.GetStrings("fonts", nil) {
		i.log.Info().Str("font", font).Msg("Installing Nerd Font")
		if err := i.installFont(ctx, fontsDir, font); err != nil {
			i.log.Warn().Err(err).Str("font", font).Msg("Failed to install font")
		}
	}

	if _, err := i.runner.Run(ctx, []string{"fc-cache", "-fv"}); err != nil {
		i.log.Warn().Err(err).Msg("Failed to refresh font cache")
		return
	}
	i.log.Info().Msg("Fonts installed")
}

// installFont fetches one font release archive and unpacks it
func (i *Installer) installFont(ctx context.Context, fontsDir, font string) error {
	url := fmt.Sprintf("%s/%s.tar.xz", nerdFontsBaseURL, font)
	archive := filepath.Join(fontsDir, font+".tar.xz")

	out, err := os.Create(archive)
	if err != nil {
		return err
	}
	if err := downloadTo(ctx, url, out); err != nil {
		_ = out.Close()
		_ = os.Remove(archive)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	_, err = i.runner.RunWith(ctx, []string{"tar", "-xf", archive},
		command.Opts{Check: true, Capture: true, Dir: fontsDir})
	if removeErr := os.Remove(archive); removeErr != nil && err == nil {
		err = removeErr
	}
	return err
}

// setupKeyboard remaps Caps Lock to Escape using the platform's
// native mechanism
func (i *Installer) setupKeyboard(ctx context.Context) {
	i.log.Info().Msg("Setting up keyboard")

	switch i.sys.OS {
	case "macos":
		i.setupKeyboardMacOS(ctx)
	case "linux":
		i.setupKeyboardLinux(ctx)
	}

	i.log.Info().Msg("Keyboard configured")
}

// setupKeyboardMacOS installs a launchd agent that applies the hidutil
// remap at login
func (i *Installer) setupKeyboardMacOS(ctx context.Context) {
	home, err := os.UserHomeDir()
	if err != nil {
		i.log.Warn().Err(err).Msg("Cannot determine home directory, skipping keyboard setup")
		return
	}

	plist, err := capsLockAgentPlist()
	if err != nil {
		i.log.Warn().Err(err).Msg("Failed to build launch agent plist")
		return
	}

	plistPath := filepath.Join(home, "Library", "LaunchAgents", "com.user.capslock-escape.plist")
	if err := i.files.EnsureDir(filepath.Dir(plistPath)); err != nil {
		i.log.Warn().Err(err).Msg("Cannot create LaunchAgents directory")
		return
	}
	if err := os.WriteFile(plistPath, plist, 0644); err != nil {
		i.log.Warn().Err(err).Msg("Failed to write launch agent plist")
		return
	}

	if _, err := i.runner.Run(ctx, []string{"launchctl", "load", plistPath}); err != nil {
		i.log.Warn().Err(err).Msg("Failed to load launch agent")
	}
}

// setupKeyboardLinux applies the remap via setxkbmap on X11 or
// gsettings on GNOME/Wayland
func (i *Installer) setupKeyboardLinux(ctx context.Context) {
	if i.sys.DisplayServer == "x11" {
		if _, err := i.runner.Run(ctx, []string{"setxkbmap", "-option", "caps:escape"}); err != nil {
			i.log.Warn().Err(err).Msg("setxkbmap failed")
		}
		return
	}

	if command.Exists("gsettings") {
		argv := []string{
			"gsettings", "set", "org.gnome.desktop.input-sources",
			"xkb-options", "['caps:escape']",
		}
		if _, err := i.runner.Run(ctx, argv); err != nil {
			i.log.Warn().Err(err).Msg("gsettings failed")
		}
	}
}

// capsLockAgentPlist renders the launchd property list that maps Caps
// Lock to Escape through hidutil
func capsLockAgentPlist() ([]byte, error) {
	const remap = `{"UserKeyMapping":[{"HIDKeyboardModifierMappingSrc":0x700000039,"HIDKeyboardModifierMappingDst":0x700000029}]}`

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective(`DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd"`)

	plist := doc.CreateElement("plist")
	plist.CreateAttr("version", "1.0")
	dict := plist.CreateElement("dict")

	dict.CreateElement("key").SetText("Label")
	dict.CreateElement("string").SetText("com.user.capslock-escape")

	dict.CreateElement("key").SetText("ProgramArguments")
	args := dict.CreateElement("array")
	for _, arg := range []string{"/usr/bin/hidutil", "property", "--set", remap} {
		args.CreateElement("string").SetText(arg)
	}

	dict.CreateElement("key").SetText("RunAtLoad")
	dict.CreateElement("true")

	doc.Indent(4)
	return doc.WriteToBytes()
}
