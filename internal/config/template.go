package config

const configTemplate = `# idlepress configuration file
# Durations use Go syntax: 800ms, 1.5s, 2m

idle:
  # How long the keyboard must be quiet before the replay fires
  threshold: 800ms
  # How often the idle time is checked
  poll_interval: 100ms

replay:
  # Key to press (run 'idlepress keys' for names, or a scan code like 0x3B)
  key: F1
  # Keyboard device the strokes are sent to (1-10)
  device: 1
  # Delay between key-down and key-up
  press_hold: 50ms
  # Delay between presses
  press_gap: 100ms
  presses: 2

driver:
  # interception (Windows, needs the driver installed) or dryrun
  backend: interception
  dll: interception.dll
  wait_timeout: 100ms

passthrough:
  # Restart keyboard forwarding this many times after a driver error (0 = never)
  max_restarts: 0
  restart_delay: 1s

console:
  eof_backoff: 100ms

# Observability settings
log_level: info  # debug, info, warn, error
log_format: console  # console or json
# log_file: idlepress.log
`
