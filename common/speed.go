package common

// All units are in metric:
// - Speed is in m/s
// - Distance is in meters
// - Time is in seconds

const SpeedOfWalkingMax = 1.78 // or 6.4 km/h or 4 mph

const SpeedOfRunningMax = 5.56 // or 20 km/h or 12 mph
