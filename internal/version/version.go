package version

const VERSION = "v0.4.0"

const UPDATE_MESSAGE = `Shortcut configuration is unchanged between releases; your config.toml keeps working.`
